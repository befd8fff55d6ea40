package fleet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/db"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []model.MachineAlert
}

func (r *recordingNotifier) Dispatch(a model.MachineAlert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingNotifier) kinds() []model.AlertKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AlertKind
	for _, a := range r.alerts {
		out = append(out, a.Kind)
	}
	return out
}

var (
	admin     = auth.Identity{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	manhattan = auth.Identity{UserID: 2, Username: "tech1", Role: model.RoleTechnician, Office: "Manhattan Office"}
	soma      = auth.Identity{UserID: 3, Username: "tech2", Role: model.RoleTechnician, Office: "SOMA Office"}
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

type fixture struct {
	svc      *Service
	machines store.MachineStore
	notifier *recordingNotifier
	cm001    *model.Machine
}

func newFixture(t *testing.T) *fixture {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	machines := store.NewMachineStore(gormDB)
	cm001 := &model.Machine{
		MachineID: "CM001", Name: "Kitchen", Location: "New York", Office: "Manhattan Office", Floor: "2nd Floor",
		Status:   model.StatusOperational,
		Supplies: model.Supplies{Water: intPtr(85), Milk: intPtr(60), Beans: intPtr(75), Sugar: intPtr(90)},
	}
	require.NoError(t, machines.Save(context.Background(), cm001))

	notifier := &recordingNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(machines, access.NewEngine(machines), notifier, health.DefaultLowSupplyThreshold, log)

	stored, err := machines.FindByID(context.Background(), cm001.ID)
	require.NoError(t, err)
	return &fixture{svc: svc, machines: machines, notifier: notifier, cm001: stored}
}

func TestUpdateSupplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = func() time.Time { return f.cm001.UpdatedAt.Add(time.Minute) }

	updated, err := f.svc.UpdateSupplies(ctx, manhattan, f.cm001.ID, model.SupplyUpdate{Water: intPtr(50)})
	require.NoError(t, err)

	assert.Equal(t, 50, *updated.Supplies.Water)
	assert.Equal(t, 60, *updated.Supplies.Milk)
	assert.Equal(t, 75, *updated.Supplies.Beans)
	assert.Equal(t, 90, *updated.Supplies.Sugar)
	assert.Equal(t, f.cm001.Name, updated.Name)
	assert.True(t, updated.UpdatedAt.After(f.cm001.UpdatedAt))
	assert.Empty(t, f.notifier.kinds())
}

func TestUpdateSupplies_InvalidLevelLeavesMachineUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateSupplies(ctx, manhattan, f.cm001.ID, model.SupplyUpdate{Water: intPtr(10), Milk: intPtr(150)})
	assert.ErrorIs(t, err, health.ErrInvalidLevel)

	after, err := f.machines.FindByID(ctx, f.cm001.ID)
	require.NoError(t, err)
	assert.Equal(t, f.cm001, after)
}

func TestUpdateSupplies_Scope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateSupplies(ctx, admin, f.cm001.ID, model.SupplyUpdate{Water: intPtr(50)})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = f.svc.UpdateSupplies(ctx, soma, f.cm001.ID, model.SupplyUpdate{Water: intPtr(50)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.UpdateSupplies(ctx, manhattan, 9999, model.SupplyUpdate{Water: intPtr(50)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateSupplies_RaisesLowSupplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateSupplies(ctx, manhattan, f.cm001.ID, model.SupplyUpdate{Milk: intPtr(20)})
	require.NoError(t, err)
	_, err = f.svc.UpdateSupplies(ctx, manhattan, f.cm001.ID, model.SupplyUpdate{Milk: intPtr(10)})
	require.NoError(t, err)

	require.Equal(t, []model.AlertKind{model.AlertLowSupply}, f.notifier.kinds())
	a := f.notifier.alerts[0]
	assert.Equal(t, "CM001", a.MachineID)
	assert.Equal(t, "Manhattan Office", a.Office)
	assert.Equal(t, "low: milk", a.Detail)
}

func TestUpdateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	maintenance := model.StatusMaintenance
	updated, err := f.svc.UpdateMachine(ctx, manhattan, f.cm001.ID, model.MachineUpdate{
		Status: &maintenance,
		Notes:  strPtr("Grinder jammed"),
		Alerts: &model.Alerts{"Grinder jammed"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, updated.Status)
	assert.Equal(t, "Grinder jammed", updated.Notes)
	assert.Equal(t, 85, *updated.Supplies.Water)

	require.Equal(t, []model.AlertKind{model.AlertMaintenanceNeeded}, f.notifier.kinds())
	assert.Equal(t, "status is MAINTENANCE, Grinder jammed", f.notifier.alerts[0].Detail)
}

func TestUpdateMachine_PlacementIsFixed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		update model.MachineUpdate
	}{
		{name: "Other office", update: model.MachineUpdate{Office: strPtr("West Branch")}},
		{name: "Other location", update: model.MachineUpdate{Location: strPtr("California"), Notes: strPtr("moved")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateMachine(ctx, manhattan, f.cm001.ID, tc.update)
			assert.ErrorIs(t, err, access.ErrForbidden)

			after, err := f.machines.FindByID(ctx, f.cm001.ID)
			require.NoError(t, err)
			assert.Equal(t, f.cm001, after)
		})
	}

	t.Run("Current values", func(t *testing.T) {
		updated, err := f.svc.UpdateMachine(ctx, manhattan, f.cm001.ID, model.MachineUpdate{
			Location: strPtr("New York"),
			Office:   strPtr("Manhattan Office"),
			Floor:    strPtr("3rd Floor"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Manhattan Office", updated.Office)
		assert.Equal(t, "3rd Floor", updated.Floor)
	})
}

func TestUpdateMachine_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		update model.MachineUpdate
		err    error
	}{
		{name: "Blank name", update: model.MachineUpdate{Name: strPtr("  ")}, err: ErrInvalidField},
		{name: "Unknown status", update: model.MachineUpdate{Status: func() *model.Status { s := model.Status("BROKEN"); return &s }()}, err: ErrInvalidStatus},
		{name: "Supply out of range", update: model.MachineUpdate{Name: strPtr("Renamed"), Supplies: model.SupplyUpdate{Cups: intPtr(-5)}}, err: health.ErrInvalidLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateMachine(ctx, manhattan, f.cm001.ID, tc.update)
			assert.ErrorIs(t, err, tc.err)

			after, err := f.machines.FindByID(ctx, f.cm001.ID)
			require.NoError(t, err)
			assert.Equal(t, f.cm001, after)
		})
	}
}

func TestApplyTelemetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	temp := 92.5
	updated, err := f.svc.ApplyTelemetry(ctx, "CM001", model.MachineUpdate{
		Temperature: &temp,
		Supplies:    model.SupplyUpdate{Beans: intPtr(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.Supplies.Beans)
	assert.Equal(t, 92.5, *updated.Temperature)
	assert.Equal(t, []model.AlertKind{model.AlertLowSupply}, f.notifier.kinds())

	_, err = f.svc.ApplyTelemetry(ctx, "CM404", model.MachineUpdate{Temperature: &temp})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Package access scopes machine queries to what the caller may see.
//
// Administrators see every machine. Technicians see only the machines of
// their own office; a technician without an office sees nothing. The scope
// is applied before any location, office or floor filter.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// ErrForbidden is returned when the caller's role does not permit the operation.
var ErrForbidden = errors.New("insufficient permissions")

// Filter narrows a listing to exact location, office and floor values.
// Empty fields impose no constraint.
type Filter struct {
	Location string
	Office   string
	Floor    string
}

// Matches reports whether m satisfies every set field of f.
func (f Filter) Matches(m *model.Machine) bool {
	return (f.Location == "" || f.Location == m.Location) &&
		(f.Office == "" || f.Office == m.Office) &&
		(f.Floor == "" || f.Floor == m.Floor)
}

// scope returns the office restriction for id. visible is false when the
// caller may see no machine at all.
func scope(id auth.Identity) (office *string, visible bool) {
	switch id.Role {
	case model.RoleAdmin:
		return nil, true
	case model.RoleTechnician:
		if id.Office == "" {
			return nil, false
		}
		o := id.Office
		return &o, true
	}
	return nil, false
}

// Visible reports whether id may see m.
func Visible(id auth.Identity, m *model.Machine) bool {
	office, ok := scope(id)
	if !ok {
		return false
	}
	return office == nil || *office == m.Office
}

// RequireTechnician returns ErrForbidden unless id may mutate machines.
func RequireTechnician(id auth.Identity) error {
	if !id.IsTechnician() {
		return ErrForbidden
	}
	return nil
}

// Engine answers machine queries on behalf of an identity.
type Engine struct {
	machines store.MachineStore
}

// NewEngine creates an Engine over the machine store.
func NewEngine(machines store.MachineStore) *Engine {
	return &Engine{machines: machines}
}

func (e *Engine) query(id auth.Identity, f Filter) (store.MachineQuery, bool) {
	office, ok := scope(id)
	return store.MachineQuery{
		ScopeOffice: office,
		Location:    f.Location,
		Office:      f.Office,
		Floor:       f.Floor,
	}, ok
}

// ListVisibleMachines returns the machines id may see that match f, ordered
// by external identifier.
func (e *Engine) ListVisibleMachines(ctx context.Context, id auth.Identity, f Filter) ([]model.Machine, error) {
	q, ok := e.query(id, f)
	if !ok {
		return []model.Machine{}, nil
	}
	return e.machines.Find(ctx, q)
}

// DistinctLocations returns the locations of the machines id may see.
func (e *Engine) DistinctLocations(ctx context.Context, id auth.Identity) ([]string, error) {
	return e.distinct(ctx, id, store.FieldLocation, Filter{})
}

// DistinctOffices returns the offices at location among the machines id may see.
func (e *Engine) DistinctOffices(ctx context.Context, id auth.Identity, location string) ([]string, error) {
	return e.distinct(ctx, id, store.FieldOffice, Filter{Location: location})
}

// DistinctFloors returns the floors of office at location among the machines id may see.
func (e *Engine) DistinctFloors(ctx context.Context, id auth.Identity, location, office string) ([]string, error) {
	return e.distinct(ctx, id, store.FieldFloor, Filter{Location: location, Office: office})
}

func (e *Engine) distinct(ctx context.Context, id auth.Identity, field store.Field, f Filter) ([]string, error) {
	q, ok := e.query(id, f)
	if !ok {
		return []string{}, nil
	}
	return e.machines.Distinct(ctx, field, q)
}

// GetMachine returns the machine with primary key pk. A machine id may not
// see is reported as store.ErrNotFound.
func (e *Engine) GetMachine(ctx context.Context, id auth.Identity, pk int64) (*model.Machine, error) {
	m, err := e.machines.FindByID(ctx, pk)
	if err != nil {
		return nil, err
	}
	return e.visibleOrNotFound(id, m)
}

// GetMachineByMachineID returns the machine with the given external identifier.
func (e *Engine) GetMachineByMachineID(ctx context.Context, id auth.Identity, machineID string) (*model.Machine, error) {
	m, err := e.machines.FindByMachineID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	return e.visibleOrNotFound(id, m)
}

func (e *Engine) visibleOrNotFound(id auth.Identity, m *model.Machine) (*model.Machine, error) {
	if !Visible(id, m) {
		return nil, fmt.Errorf("machine %q is outside the caller's scope: %w", m.MachineID, store.ErrNotFound)
	}
	return m, nil
}

// LowSupplyMachines returns the visible machines with a level below threshold.
func (e *Engine) LowSupplyMachines(ctx context.Context, id auth.Identity, threshold int) ([]model.Machine, error) {
	return e.selectVisible(ctx, id, func(m *model.Machine) bool {
		return health.IsLowSupply(m, threshold)
	})
}

// MaintenanceNeededMachines returns the visible machines that need maintenance.
func (e *Engine) MaintenanceNeededMachines(ctx context.Context, id auth.Identity) ([]model.Machine, error) {
	return e.selectVisible(ctx, id, health.NeedsMaintenance)
}

func (e *Engine) selectVisible(ctx context.Context, id auth.Identity, keep func(*model.Machine) bool) ([]model.Machine, error) {
	machines, err := e.ListVisibleMachines(ctx, id, Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Machine, 0, len(machines))
	for i := range machines {
		if keep(&machines[i]) {
			out = append(out, machines[i])
		}
	}
	return out, nil
}

// HealthReport exposes every derived condition of one machine.
type HealthReport struct {
	MachineID        string         `json:"machineId"`
	Threshold        int            `json:"threshold"`
	LowSupply        bool           `json:"lowSupply"`
	LowSupplies      []string       `json:"lowSupplies"`
	Signals          health.Signals `json:"signals"`
	NeedsMaintenance bool           `json:"needsMaintenance"`
}

// MachineHealth reports the derived conditions of the machine with primary key pk.
func (e *Engine) MachineHealth(ctx context.Context, id auth.Identity, pk int64, threshold int) (*HealthReport, error) {
	m, err := e.GetMachine(ctx, id, pk)
	if err != nil {
		return nil, err
	}
	signals := health.Evaluate(m)
	low := health.LowSupplies(m, threshold)
	if low == nil {
		low = []string{}
	}
	return &HealthReport{
		MachineID:        m.MachineID,
		Threshold:        threshold,
		LowSupply:        len(low) > 0,
		LowSupplies:      low,
		Signals:          signals,
		NeedsMaintenance: signals.NeedsMaintenance(),
	}, nil
}

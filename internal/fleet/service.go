// Package fleet applies mutations to machines and raises alerts when a
// machine enters a low-supply or maintenance-needed condition.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

var (
	// ErrInvalidField is returned when an update blanks a required field.
	ErrInvalidField = errors.New("invalid field value")
	// ErrInvalidStatus is returned for an unknown or disallowed status.
	ErrInvalidStatus = errors.New("invalid machine status")
)

// Notifier receives alerts raised by machine mutations.
type Notifier interface {
	Dispatch(alert model.MachineAlert)
}

// Service mutates machines on behalf of technicians and telemetry.
type Service struct {
	machines  store.MachineStore
	engine    *access.Engine
	notifier  Notifier
	threshold int
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. notifier may be nil, in which case no alert is sent.
func NewService(machines store.MachineStore, engine *access.Engine, notifier Notifier, threshold int, log *slog.Logger) *Service {
	if threshold <= 0 {
		threshold = health.DefaultLowSupplyThreshold
	}
	return &Service{
		machines:  machines,
		engine:    engine,
		notifier:  notifier,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// UpdateSupplies applies a sparse supply update to the machine with primary
// key pk. Either every provided level is written or none is.
func (s *Service) UpdateSupplies(ctx context.Context, id auth.Identity, pk int64, u model.SupplyUpdate) (*model.Machine, error) {
	if err := access.RequireTechnician(id); err != nil {
		return nil, err
	}

	before, err := s.engine.GetMachine(ctx, id, pk)
	if err != nil {
		return nil, err
	}

	if err := health.ApplySupplies(before.Clone(), u); err != nil {
		return nil, err
	}

	if err := s.machines.UpdateSupplies(ctx, pk, u, s.now()); err != nil {
		return nil, err
	}

	return s.reload(ctx, before)
}

// UpdateMachine applies a sparse update to the mutable fields of the machine
// with primary key pk. A technician cannot move the machine to another
// location or office; repeating the current values is allowed.
func (s *Service) UpdateMachine(ctx context.Context, id auth.Identity, pk int64, u model.MachineUpdate) (*model.Machine, error) {
	if err := access.RequireTechnician(id); err != nil {
		return nil, err
	}

	before, err := s.engine.GetMachine(ctx, id, pk)
	if err != nil {
		return nil, err
	}

	if err := keepsPlacement(before, u); err != nil {
		return nil, err
	}
	if err := validate(before, u); err != nil {
		return nil, err
	}

	if err := s.machines.Update(ctx, pk, u, s.now()); err != nil {
		return nil, err
	}

	return s.reload(ctx, before)
}

// ApplyTelemetry records a reading for the machine with external identifier
// machineID. It is not scoped to a caller.
func (s *Service) ApplyTelemetry(ctx context.Context, machineID string, u model.MachineUpdate) (*model.Machine, error) {
	before, err := s.machines.FindByMachineID(ctx, machineID)
	if err != nil {
		return nil, err
	}

	if err := validate(before, u); err != nil {
		return nil, err
	}

	if err := s.machines.Update(ctx, before.ID, u, s.now()); err != nil {
		return nil, err
	}

	return s.reload(ctx, before)
}

func (s *Service) reload(ctx context.Context, before *model.Machine) (*model.Machine, error) {
	after, err := s.machines.FindByID(ctx, before.ID)
	if err != nil {
		return nil, err
	}
	s.raiseAlerts(before, after)
	return after, nil
}

func keepsPlacement(m *model.Machine, u model.MachineUpdate) error {
	if u.Location != nil && *u.Location != m.Location {
		return fmt.Errorf("%w: location cannot be changed", access.ErrForbidden)
	}
	if u.Office != nil && *u.Office != m.Office {
		return fmt.Errorf("%w: office cannot be changed", access.ErrForbidden)
	}
	return nil
}

func validate(m *model.Machine, u model.MachineUpdate) error {
	if err := health.ValidateSupplies(u.Supplies); err != nil {
		return err
	}

	for field, v := range map[string]*string{
		"name":     u.Name,
		"location": u.Location,
		"office":   u.Office,
		"floor":    u.Floor,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s must not be blank", ErrInvalidField, field)
		}
	}

	if u.Status != nil {
		if !u.Status.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, string(*u.Status))
		}
		if !m.Status.CanTransitionTo(*u.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, m.Status, *u.Status)
		}
	}
	return nil
}

// raiseAlerts dispatches an alert for every condition after entered that
// before was not in.
func (s *Service) raiseAlerts(before, after *model.Machine) {
	if s.notifier == nil {
		return
	}

	now := s.now()
	alert := func(kind model.AlertKind, detail string) {
		s.log.Info("machine entered alert condition",
			slog.String("machine_id", after.MachineID),
			slog.String("kind", string(kind)),
			slog.String("detail", detail))
		s.notifier.Dispatch(model.MachineAlert{
			Kind:      kind,
			MachineID: after.MachineID,
			Name:      after.Name,
			Office:    after.Office,
			Detail:    detail,
			RaisedAt:  now,
		})
	}

	if !health.IsLowSupply(before, s.threshold) && health.IsLowSupply(after, s.threshold) {
		alert(model.AlertLowSupply, "low: "+strings.Join(health.LowSupplies(after, s.threshold), ", "))
	}

	if !health.NeedsMaintenance(before) && health.NeedsMaintenance(after) {
		alert(model.AlertMaintenanceNeeded, describe(health.Evaluate(after), after))
	}
}

func describe(sig health.Signals, m *model.Machine) string {
	var causes []string
	if sig.StatusMaintenance {
		causes = append(causes, "status is "+string(model.StatusMaintenance))
	}
	if sig.HasAlerts {
		causes = append(causes, strings.Join(m.Alerts.Active(), "; "))
	}
	if sig.FilterDegraded {
		causes = append(causes, "filter is "+string(m.FilterStatus))
	}
	return strings.Join(causes, ", ")
}

// Package health derives alert conditions from a machine's recorded state.
package health

import (
	"errors"
	"fmt"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

// DefaultLowSupplyThreshold applies when the caller does not choose one.
const DefaultLowSupplyThreshold = 30

const (
	MinLevel = 0
	MaxLevel = 100
)

// ErrInvalidLevel is returned when a supply level falls outside [MinLevel, MaxLevel].
var ErrInvalidLevel = errors.New("supply level must be between 0 and 100")

// IsLowSupply reports whether any present supply level is strictly below
// threshold. A machine without recorded levels is never low.
func IsLowSupply(m *model.Machine, threshold int) bool {
	for _, l := range m.Supplies.Levels() {
		if l.Level < threshold {
			return true
		}
	}
	return false
}

// LowSupplies returns the names of the levels strictly below threshold.
func LowSupplies(m *model.Machine, threshold int) []string {
	var names []string
	for _, l := range m.Supplies.Levels() {
		if l.Level < threshold {
			names = append(names, l.Name)
		}
	}
	return names
}

// Signals are the independent conditions that make a machine need maintenance.
type Signals struct {
	StatusMaintenance bool `json:"statusMaintenance"`
	HasAlerts         bool `json:"hasAlerts"`
	FilterDegraded    bool `json:"filterDegraded"`
}

// NeedsMaintenance is true when any signal is raised.
func (s Signals) NeedsMaintenance() bool {
	return s.StatusMaintenance || s.HasAlerts || s.FilterDegraded
}

// Evaluate computes the maintenance signals of m.
func Evaluate(m *model.Machine) Signals {
	return Signals{
		StatusMaintenance: m.Status == model.StatusMaintenance,
		HasAlerts:         len(m.Alerts.Active()) > 0,
		FilterDegraded:    m.FilterStatus.Degraded(),
	}
}

// NeedsMaintenance reports whether m is in maintenance, carries an alert, or
// has a degraded filter.
func NeedsMaintenance(m *model.Machine) bool {
	return Evaluate(m).NeedsMaintenance()
}

// ValidateSupplies checks every provided level without modifying anything.
func ValidateSupplies(u model.SupplyUpdate) error {
	for _, l := range u.Levels() {
		if err := ValidateLevel(l.Name, l.Level); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLevel checks a single named level.
func ValidateLevel(name string, level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %s=%d", ErrInvalidLevel, name, level)
	}
	return nil
}

// ApplySupplies validates u and, only if every level is valid, writes the
// provided levels into m. On error m is left untouched.
func ApplySupplies(m *model.Machine, u model.SupplyUpdate) error {
	if err := ValidateSupplies(u); err != nil {
		return err
	}
	u.ApplyTo(&m.Supplies)
	return nil
}

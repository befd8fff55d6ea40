package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

func intPtr(v int) *int { return &v }

func TestIsLowSupply(t *testing.T) {
	testCases := []struct {
		name      string
		supplies  model.Supplies
		threshold int
		expected  bool
	}{
		{name: "No levels is never low", supplies: model.Supplies{}, threshold: 100, expected: false},
		{name: "Level equal to threshold is not low", supplies: model.Supplies{Water: intPtr(30)}, threshold: 30, expected: false},
		{name: "Level below threshold is low", supplies: model.Supplies{Water: intPtr(80), Beans: intPtr(25)}, threshold: 30, expected: true},
		{name: "Zero threshold flags nothing", supplies: model.Supplies{Cups: intPtr(0)}, threshold: 0, expected: false},
		{name: "Empty supply is low", supplies: model.Supplies{Cups: intPtr(0)}, threshold: 1, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &model.Machine{Supplies: tc.supplies}
			assert.Equal(t, tc.expected, IsLowSupply(m, tc.threshold))
		})
	}
}

func TestIsLowSupply_Monotonic(t *testing.T) {
	machines := []*model.Machine{
		{Supplies: model.Supplies{Water: intPtr(10)}},
		{Supplies: model.Supplies{Milk: intPtr(45), Sugar: intPtr(70)}},
		{Supplies: model.Supplies{Beans: intPtr(99)}},
		{},
	}
	for t1 := 0; t1 <= 100; t1 += 5 {
		for t2 := t1 + 1; t2 <= 101; t2 += 7 {
			for _, m := range machines {
				if IsLowSupply(m, t1) {
					assert.True(t, IsLowSupply(m, t2), "threshold %d flagged but %d did not", t1, t2)
				}
			}
		}
	}
}

func TestLowSupplies(t *testing.T) {
	m := &model.Machine{Supplies: model.Supplies{Water: intPtr(10), Milk: intPtr(60), Cups: intPtr(5)}}
	assert.Equal(t, []string{model.SupplyWater, model.SupplyCups}, LowSupplies(m, 30))
	assert.Empty(t, LowSupplies(m, 5))
}

func TestNeedsMaintenance(t *testing.T) {
	testCases := []struct {
		name     string
		machine  model.Machine
		expected Signals
	}{
		{
			name:     "Healthy machine",
			machine:  model.Machine{Status: model.StatusOperational, FilterStatus: model.FilterGood},
			expected: Signals{},
		},
		{
			name:     "Maintenance status alone",
			machine:  model.Machine{Status: model.StatusMaintenance},
			expected: Signals{StatusMaintenance: true},
		},
		{
			name:     "Blank alerts do not count",
			machine:  model.Machine{Status: model.StatusOperational, Alerts: model.Alerts{"", "  "}},
			expected: Signals{},
		},
		{
			name:     "Alert alone",
			machine:  model.Machine{Status: model.StatusOffline, Alerts: model.Alerts{"Descale"}},
			expected: Signals{HasAlerts: true},
		},
		{
			name:     "Critical filter alone",
			machine:  model.Machine{Status: model.StatusOperational, FilterStatus: model.FilterCritical},
			expected: Signals{FilterDegraded: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(&tc.machine)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, got != Signals{}, NeedsMaintenance(&tc.machine))
		})
	}
}

func TestSeededMaintenanceMachine(t *testing.T) {
	m := &model.Machine{
		MachineID: "CM002",
		Status:    model.StatusMaintenance,
		Supplies:  model.Supplies{Water: intPtr(45), Milk: intPtr(20), Beans: intPtr(25), Sugar: intPtr(80)},
		Alerts:    model.Alerts{"Low milk supply"},
	}
	assert.True(t, IsLowSupply(m, DefaultLowSupplyThreshold))
	assert.True(t, NeedsMaintenance(m))
}

func TestApplySupplies(t *testing.T) {
	t.Run("Sparse update with explicit zero", func(t *testing.T) {
		m := &model.Machine{Supplies: model.Supplies{Water: intPtr(80), Milk: intPtr(60)}}
		require.NoError(t, ApplySupplies(m, model.SupplyUpdate{Water: intPtr(0)}))
		assert.Equal(t, 0, *m.Supplies.Water)
		assert.Equal(t, 60, *m.Supplies.Milk)
		assert.Nil(t, m.Supplies.Beans)
	})

	t.Run("Out of range leaves machine unchanged", func(t *testing.T) {
		m := &model.Machine{Supplies: model.Supplies{Water: intPtr(80), Milk: intPtr(60)}}
		before := m.Clone()

		err := ApplySupplies(m, model.SupplyUpdate{Water: intPtr(50), Milk: intPtr(101)})
		assert.ErrorIs(t, err, ErrInvalidLevel)
		assert.Contains(t, err.Error(), "milk=101")
		assert.Equal(t, before, m)
	})

	t.Run("Negative level rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSupplies(model.SupplyUpdate{Cups: intPtr(-1)}), ErrInvalidLevel)
	})
}

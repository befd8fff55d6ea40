package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Machine represents a coffee machine and its last known state.
type Machine struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	MachineID       string         `gorm:"uniqueIndex;size:64;not null" json:"machineId"` // External identifier, immutable
	Name            string         `gorm:"size:256;not null" json:"name"`
	Location        string         `gorm:"index;size:128;not null" json:"location"`
	Office          string         `gorm:"index;size:128;not null" json:"office"`
	Floor           string         `gorm:"size:64;not null" json:"floor"`
	Status          Status         `gorm:"size:16;not null" json:"status"`
	Supplies        Supplies       `gorm:"embedded" json:"supplies"`
	FilterStatus    FilterStatus   `gorm:"size:32" json:"filterStatus,omitempty"`
	CleaningStatus  CleaningStatus `gorm:"size:32" json:"cleaningStatus,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	Pressure        *float64       `json:"pressure,omitempty"`
	DailyCups       *int           `json:"dailyCups,omitempty"`
	WeeklyCups      *int           `json:"weeklyCups,omitempty"`
	MonthlyRevenue  *float64       `json:"monthlyRevenue,omitempty"`
	Alerts          Alerts         `gorm:"type:text" json:"alerts"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	LastMaintenance *time.Time     `json:"lastMaintenance,omitempty"`
	NextMaintenance *time.Time     `json:"nextMaintenance,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of the machine.
func (m *Machine) Clone() *Machine {
	c := *m
	c.Supplies = m.Supplies.Clone()
	c.Temperature = cloneFloat(m.Temperature)
	c.Pressure = cloneFloat(m.Pressure)
	c.DailyCups = cloneInt(m.DailyCups)
	c.WeeklyCups = cloneInt(m.WeeklyCups)
	c.MonthlyRevenue = cloneFloat(m.MonthlyRevenue)
	c.LastMaintenance = cloneTime(m.LastMaintenance)
	c.NextMaintenance = cloneTime(m.NextMaintenance)
	if m.Alerts != nil {
		c.Alerts = append(Alerts(nil), m.Alerts...)
	}
	return &c
}

// Supply names, in the order they are reported.
const (
	SupplyWater = "water"
	SupplyMilk  = "milk"
	SupplyBeans = "beans"
	SupplySugar = "sugar"
	SupplyCups  = "cups"
)

// Supplies holds the named supply levels of a machine as percentages.
// A nil level means the machine does not report that supply.
type Supplies struct {
	Water *int `gorm:"column:water_level" json:"water,omitempty"`
	Milk  *int `gorm:"column:milk_level" json:"milk,omitempty"`
	Beans *int `gorm:"column:beans_level" json:"beans,omitempty"`
	Sugar *int `gorm:"column:sugar_level" json:"sugar,omitempty"`
	Cups  *int `gorm:"column:cups_level" json:"cups,omitempty"`
}

// SupplyLevel is one present supply level.
type SupplyLevel struct {
	Name  string
	Level int
}

// Levels returns the present supply levels in a fixed order.
func (s Supplies) Levels() []SupplyLevel {
	var out []SupplyLevel
	for _, f := range s.fields() {
		if *f.ptr != nil {
			out = append(out, SupplyLevel{Name: f.name, Level: **f.ptr})
		}
	}
	return out
}

// Clone returns a copy that shares no pointers with s.
func (s Supplies) Clone() Supplies {
	return Supplies{
		Water: cloneInt(s.Water),
		Milk:  cloneInt(s.Milk),
		Beans: cloneInt(s.Beans),
		Sugar: cloneInt(s.Sugar),
		Cups:  cloneInt(s.Cups),
	}
}

type supplyField struct {
	name   string
	column string
	ptr    **int
}

func (s *Supplies) fields() []supplyField {
	return []supplyField{
		{SupplyWater, "water_level", &s.Water},
		{SupplyMilk, "milk_level", &s.Milk},
		{SupplyBeans, "beans_level", &s.Beans},
		{SupplySugar, "sugar_level", &s.Sugar},
		{SupplyCups, "cups_level", &s.Cups},
	}
}

// Alerts is a list of free-text alerts stored as a JSON array.
type Alerts []string

// Active returns the alerts that carry text.
func (a Alerts) Active() []string {
	var out []string
	for _, s := range a {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (a Alerts) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *Alerts) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Alerts", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode alerts: %w", err)
	}
	*a = out
	return nil
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

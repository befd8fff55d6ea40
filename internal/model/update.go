package model

import "time"

// SupplyUpdate is a sparse set of supply levels. Nil fields are left untouched;
// an explicit zero is a valid level.
type SupplyUpdate struct {
	Water *int `json:"water"`
	Milk  *int `json:"milk"`
	Beans *int `json:"beans"`
	Sugar *int `json:"sugar"`
	Cups  *int `json:"cups"`
}

// Empty reports whether the update carries no level.
func (u SupplyUpdate) Empty() bool {
	return len(u.Levels()) == 0
}

// Levels returns the provided levels in the same order as Supplies.Levels.
func (u SupplyUpdate) Levels() []SupplyLevel {
	s := Supplies(u)
	return s.Levels()
}

// Columns maps the provided levels to their database columns.
func (u SupplyUpdate) Columns() map[string]any {
	s := Supplies(u)
	cols := make(map[string]any)
	for _, f := range s.fields() {
		if *f.ptr != nil {
			cols[f.column] = **f.ptr
		}
	}
	return cols
}

// ApplyTo writes the provided levels into s.
func (u SupplyUpdate) ApplyTo(s *Supplies) {
	src := Supplies(u)
	srcFields := src.fields()
	for i, f := range s.fields() {
		if v := *srcFields[i].ptr; v != nil {
			level := *v
			*f.ptr = &level
		}
	}
}

// MachineUpdate is a sparse update of a machine's mutable fields.
// The external machine identifier is immutable and therefore absent.
type MachineUpdate struct {
	Name            *string         `json:"name"`
	Location        *string         `json:"location"`
	Office          *string         `json:"office"`
	Floor           *string         `json:"floor"`
	Status          *Status         `json:"status"`
	FilterStatus    *FilterStatus   `json:"filterStatus"`
	CleaningStatus  *CleaningStatus `json:"cleaningStatus"`
	Temperature     *float64        `json:"temperature"`
	Pressure        *float64        `json:"pressure"`
	DailyCups       *int            `json:"dailyCups"`
	WeeklyCups      *int            `json:"weeklyCups"`
	MonthlyRevenue  *float64        `json:"monthlyRevenue"`
	Notes           *string         `json:"notes"`
	Alerts          *Alerts         `json:"alerts"`
	LastMaintenance *time.Time      `json:"lastMaintenance"`
	NextMaintenance *time.Time      `json:"nextMaintenance"`
	Supplies        SupplyUpdate    `json:"supplies"`
}

// Columns maps every provided field to its database column.
func (u MachineUpdate) Columns() map[string]any {
	cols := u.Supplies.Columns()
	set := func(col string, ok bool, v any) {
		if ok {
			cols[col] = v
		}
	}
	set("name", u.Name != nil, deref(u.Name))
	set("location", u.Location != nil, deref(u.Location))
	set("office", u.Office != nil, deref(u.Office))
	set("floor", u.Floor != nil, deref(u.Floor))
	set("notes", u.Notes != nil, deref(u.Notes))
	if u.Status != nil {
		cols["status"] = string(*u.Status)
	}
	if u.FilterStatus != nil {
		cols["filter_status"] = string(*u.FilterStatus)
	}
	if u.CleaningStatus != nil {
		cols["cleaning_status"] = string(*u.CleaningStatus)
	}
	if u.Temperature != nil {
		cols["temperature"] = *u.Temperature
	}
	if u.Pressure != nil {
		cols["pressure"] = *u.Pressure
	}
	if u.DailyCups != nil {
		cols["daily_cups"] = *u.DailyCups
	}
	if u.WeeklyCups != nil {
		cols["weekly_cups"] = *u.WeeklyCups
	}
	if u.MonthlyRevenue != nil {
		cols["monthly_revenue"] = *u.MonthlyRevenue
	}
	if u.Alerts != nil {
		cols["alerts"] = *u.Alerts
	}
	if u.LastMaintenance != nil {
		cols["last_maintenance"] = *u.LastMaintenance
	}
	if u.NextMaintenance != nil {
		cols["next_maintenance"] = *u.NextMaintenance
	}
	return cols
}

// ApplyTo writes every provided field into m. It does not touch UpdatedAt.
func (u MachineUpdate) ApplyTo(m *Machine) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Location != nil {
		m.Location = *u.Location
	}
	if u.Office != nil {
		m.Office = *u.Office
	}
	if u.Floor != nil {
		m.Floor = *u.Floor
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.FilterStatus != nil {
		m.FilterStatus = *u.FilterStatus
	}
	if u.CleaningStatus != nil {
		m.CleaningStatus = *u.CleaningStatus
	}
	if u.Temperature != nil {
		m.Temperature = cloneFloat(u.Temperature)
	}
	if u.Pressure != nil {
		m.Pressure = cloneFloat(u.Pressure)
	}
	if u.DailyCups != nil {
		m.DailyCups = cloneInt(u.DailyCups)
	}
	if u.WeeklyCups != nil {
		m.WeeklyCups = cloneInt(u.WeeklyCups)
	}
	if u.MonthlyRevenue != nil {
		m.MonthlyRevenue = cloneFloat(u.MonthlyRevenue)
	}
	if u.Notes != nil {
		m.Notes = *u.Notes
	}
	if u.Alerts != nil {
		m.Alerts = append(Alerts(nil), (*u.Alerts)...)
	}
	if u.LastMaintenance != nil {
		m.LastMaintenance = cloneTime(u.LastMaintenance)
	}
	if u.NextMaintenance != nil {
		m.NextMaintenance = cloneTime(u.NextMaintenance)
	}
	u.Supplies.ApplyTo(&m.Supplies)
}

// Empty reports whether the update changes nothing.
func (u MachineUpdate) Empty() bool {
	return len(u.Columns()) == 0
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

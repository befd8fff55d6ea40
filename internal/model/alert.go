package model

import "time"

// AlertKind names the condition a machine has entered.
type AlertKind string

const (
	AlertLowSupply         AlertKind = "LOW_SUPPLY"
	AlertMaintenanceNeeded AlertKind = "MAINTENANCE_NEEDED"
)

// MachineAlert is raised when a machine enters an alerting condition.
type MachineAlert struct {
	Kind      AlertKind `json:"kind"`
	MachineID string    `json:"machineId"`
	Name      string    `json:"name"`
	Office    string    `json:"office"`
	Detail    string    `json:"detail"`
	RaisedAt  time.Time `json:"raisedAt"`
}

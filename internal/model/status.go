package model

import (
	"fmt"
	"strings"
)

// Status is the operational status of a machine.
type Status string

const (
	StatusOperational Status = "OPERATIONAL"
	StatusMaintenance Status = "MAINTENANCE"
	StatusOffline     Status = "OFFLINE"
)

// statusTransitions lists the statuses reachable from each status.
// Every transition is currently permitted; callers that need a stricter
// policy enforce it themselves.
var statusTransitions = map[Status][]Status{
	StatusOperational: {StatusOperational, StatusMaintenance, StatusOffline},
	StatusMaintenance: {StatusOperational, StatusMaintenance, StatusOffline},
	StatusOffline:     {StatusOperational, StatusMaintenance, StatusOffline},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether a machine in status s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown machine status %q", raw)
	}
	return s, nil
}

// UnmarshalText rejects unknown statuses.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FilterStatus is the condition of the water filter.
type FilterStatus string

const (
	FilterGood             FilterStatus = "GOOD"
	FilterNeedsReplacement FilterStatus = "NEEDS_REPLACEMENT"
	FilterCritical         FilterStatus = "CRITICAL"
)

// Degraded reports whether the filter needs attention.
func (f FilterStatus) Degraded() bool {
	return f == FilterNeedsReplacement || f == FilterCritical
}

// UnmarshalText rejects unknown filter statuses. An empty value clears it.
func (f *FilterStatus) UnmarshalText(b []byte) error {
	v := FilterStatus(strings.ToUpper(strings.TrimSpace(string(b))))
	switch v {
	case "", FilterGood, FilterNeedsReplacement, FilterCritical:
		*f = v
		return nil
	}
	return fmt.Errorf("unknown filter status %q", string(b))
}

// CleaningStatus is the cleaning state of a machine.
type CleaningStatus string

const (
	CleaningClean         CleaningStatus = "CLEAN"
	CleaningNeedsCleaning CleaningStatus = "NEEDS_CLEANING"
	CleaningOverdue       CleaningStatus = "OVERDUE"
)

// UnmarshalText rejects unknown cleaning statuses. An empty value clears it.
func (c *CleaningStatus) UnmarshalText(b []byte) error {
	v := CleaningStatus(strings.ToUpper(strings.TrimSpace(string(b))))
	switch v {
	case "", CleaningClean, CleaningNeedsCleaning, CleaningOverdue:
		*c = v
		return nil
	}
	return fmt.Errorf("unknown cleaning status %q", string(b))
}

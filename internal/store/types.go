package store

import "fmt"

// Field names a machine column that can be projected with Distinct.
type Field string

const (
	FieldLocation Field = "location"
	FieldOffice   Field = "office"
	FieldFloor    Field = "floor"
)

func (f Field) column() (string, error) {
	switch f {
	case FieldLocation, FieldOffice, FieldFloor:
		return string(f), nil
	}
	return "", fmt.Errorf("field %q cannot be projected", string(f))
}

// MachineQuery selects machines. ScopeOffice restricts the result to a single
// office before any filter is applied; nil means every office. The remaining
// fields are exact-match filters and an empty value imposes no constraint.
type MachineQuery struct {
	ScopeOffice *string
	Location    string
	Office      string
	Floor       string
}

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

// MachineStore defines the persistence operations on machines.
type MachineStore interface {
	FindByID(ctx context.Context, id int64) (*model.Machine, error)
	FindByMachineID(ctx context.Context, machineID string) (*model.Machine, error)
	FindAll(ctx context.Context) ([]model.Machine, error)
	FindByOffice(ctx context.Context, office string) ([]model.Machine, error)
	Find(ctx context.Context, q MachineQuery) ([]model.Machine, error)
	Distinct(ctx context.Context, field Field, q MachineQuery) ([]string, error)
	Save(ctx context.Context, m *model.Machine) error
	UpdateSupplies(ctx context.Context, id int64, u model.SupplyUpdate, now time.Time) error
	Update(ctx context.Context, id int64, u model.MachineUpdate, now time.Time) error
	Count(ctx context.Context) (int64, error)
}

// gormMachineStore implements MachineStore using GORM.
type gormMachineStore struct {
	db *gorm.DB
}

// NewMachineStore creates a new GORM-backed machine store.
func NewMachineStore(db *gorm.DB) MachineStore {
	return &gormMachineStore{db: db}
}

func (s *gormMachineStore) FindByID(ctx context.Context, id int64) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("failed to find machine %d: %w", id, translate(err))
	}
	return &m, nil
}

func (s *gormMachineStore) FindByMachineID(ctx context.Context, machineID string) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).Where("machine_id = ?", machineID).First(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to find machine %q: %w", machineID, translate(err))
	}
	return &m, nil
}

func (s *gormMachineStore) FindAll(ctx context.Context) ([]model.Machine, error) {
	return s.Find(ctx, MachineQuery{})
}

func (s *gormMachineStore) FindByOffice(ctx context.Context, office string) ([]model.Machine, error) {
	return s.Find(ctx, MachineQuery{ScopeOffice: &office})
}

// Find returns the machines matching q ordered by their external identifier.
func (s *gormMachineStore) Find(ctx context.Context, q MachineQuery) ([]model.Machine, error) {
	machines := []model.Machine{}
	if err := applyQuery(s.db.WithContext(ctx), q).Order("machine_id").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// Distinct returns the sorted distinct values of field among the machines matching q.
func (s *gormMachineStore) Distinct(ctx context.Context, field Field, q MachineQuery) ([]string, error) {
	column, err := field.column()
	if err != nil {
		return nil, err
	}

	values := []string{}
	err = applyQuery(s.db.WithContext(ctx).Model(&model.Machine{}), q).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	return values, nil
}

func (s *gormMachineStore) Save(ctx context.Context, m *model.Machine) error {
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("failed to save machine %q: %w", m.MachineID, translate(err))
	}
	return nil
}

// UpdateSupplies writes only the provided supply columns and updated_at in a
// single statement, so concurrent updates of other columns are preserved.
func (s *gormMachineStore) UpdateSupplies(ctx context.Context, id int64, u model.SupplyUpdate, now time.Time) error {
	return s.updateColumns(ctx, id, u.Columns(), now)
}

// Update writes only the provided columns and updated_at in a single statement.
func (s *gormMachineStore) Update(ctx context.Context, id int64, u model.MachineUpdate, now time.Time) error {
	return s.updateColumns(ctx, id, u.Columns(), now)
}

func (s *gormMachineStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Machine{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count machines: %w", err)
	}
	return n, nil
}

func (s *gormMachineStore) updateColumns(ctx context.Context, id int64, cols map[string]any, now time.Time) error {
	cols["updated_at"] = now

	res := s.db.WithContext(ctx).Model(&model.Machine{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to update machine %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update machine %d: %w", id, ErrNotFound)
	}
	return nil
}

func applyQuery(tx *gorm.DB, q MachineQuery) *gorm.DB {
	if q.ScopeOffice != nil {
		tx = tx.Where("office = ?", *q.ScopeOffice)
	}
	if q.Location != "" {
		tx = tx.Where("location = ?", q.Location)
	}
	if q.Office != "" {
		tx = tx.Where("office = ?", q.Office)
	}
	if q.Floor != "" {
		tx = tx.Where("floor = ?", q.Floor)
	}
	return tx
}

// Package seed loads sample users and machines into an empty database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

//go:embed default.yaml
var defaultFixture []byte

// File is the on-disk fixture format.
type File struct {
	Users    []User    `yaml:"users"`
	Machines []Machine `yaml:"machines"`
}

// User is a fixture account. Password is stored hashed.
type User struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Office   string `yaml:"office"`
}

// Machine is a fixture machine. Maintenance dates are relative to load time.
type Machine struct {
	MachineID              string         `yaml:"machine_id"`
	Name                   string         `yaml:"name"`
	Location               string         `yaml:"location"`
	Office                 string         `yaml:"office"`
	Floor                  string         `yaml:"floor"`
	Status                 string         `yaml:"status"`
	Supplies               map[string]int `yaml:"supplies"`
	FilterStatus           string         `yaml:"filter_status"`
	CleaningStatus         string         `yaml:"cleaning_status"`
	Temperature            *float64       `yaml:"temperature"`
	Pressure               *float64       `yaml:"pressure"`
	DailyCups              *int           `yaml:"daily_cups"`
	WeeklyCups             *int           `yaml:"weekly_cups"`
	MonthlyRevenue         *float64       `yaml:"monthly_revenue"`
	Alerts                 []string       `yaml:"alerts"`
	Notes                  string         `yaml:"notes"`
	LastMaintenanceDaysAgo *int           `yaml:"last_maintenance_days_ago"`
	NextMaintenanceInDays  *int           `yaml:"next_maintenance_in_days"`
}

// Parse decodes a fixture.
func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &f, nil
}

// Load reads the fixture at path, or the built-in fixture when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Parse(defaultFixture)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(b)
}

// Result counts the records a seeding run created.
type Result struct {
	Users    int
	Machines int
}

// Seeder writes fixtures through the stores.
type Seeder struct {
	users    store.UserStore
	machines store.MachineStore
	hasher   auth.PasswordHasher
	log      *slog.Logger
	now      func() time.Time
}

// NewSeeder creates a Seeder.
func NewSeeder(users store.UserStore, machines store.MachineStore, hasher auth.PasswordHasher, log *slog.Logger) *Seeder {
	return &Seeder{users: users, machines: machines, hasher: hasher, log: log, now: time.Now}
}

// Run creates every fixture user whose username is free, and every fixture
// machine when no machine exists yet. Running it twice creates nothing new.
func (s *Seeder) Run(ctx context.Context, f *File) (Result, error) {
	var res Result

	for _, u := range f.Users {
		created, err := s.seedUser(ctx, u)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
	}

	count, err := s.machines.Count(ctx)
	if err != nil {
		return res, err
	}
	if count > 0 {
		s.log.Debug("machines already present, skipping machine fixtures", slog.Int64("count", count))
		return res, nil
	}

	now := s.now()
	for _, fm := range f.Machines {
		m, err := fm.toModel(now)
		if err != nil {
			return res, err
		}
		if err := s.machines.Save(ctx, m); err != nil {
			return res, err
		}
		res.Machines++
	}

	s.log.Info("seed data loaded", slog.Int("users", res.Users), slog.Int("machines", res.Machines))
	return res, nil
}

func (s *Seeder) seedUser(ctx context.Context, u User) (bool, error) {
	exists, err := s.users.ExistsByUsername(ctx, u.Username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	role := model.Role(strings.ToUpper(u.Role))
	if !role.Valid() {
		return false, fmt.Errorf("seed user %q: unknown role %q", u.Username, u.Role)
	}
	office := u.Office
	if role == model.RoleAdmin {
		office = ""
	}

	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return false, fmt.Errorf("seed user %q: %w", u.Username, err)
	}

	return true, s.users.Create(ctx, &model.User{
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: hash,
		Role:         role,
		Office:       office,
	})
}

func (fm Machine) toModel(now time.Time) (*model.Machine, error) {
	status, err := model.ParseStatus(fm.Status)
	if err != nil {
		return nil, fmt.Errorf("seed machine %q: %w", fm.MachineID, err)
	}

	m := &model.Machine{
		MachineID:      fm.MachineID,
		Name:           fm.Name,
		Location:       fm.Location,
		Office:         fm.Office,
		Floor:          fm.Floor,
		Status:         status,
		Temperature:    fm.Temperature,
		Pressure:       fm.Pressure,
		DailyCups:      fm.DailyCups,
		WeeklyCups:     fm.WeeklyCups,
		MonthlyRevenue: fm.MonthlyRevenue,
		Alerts:         model.Alerts(fm.Alerts),
		Notes:          fm.Notes,
	}

	if err := m.FilterStatus.UnmarshalText([]byte(fm.FilterStatus)); err != nil {
		return nil, fmt.Errorf("seed machine %q: %w", fm.MachineID, err)
	}
	if err := m.CleaningStatus.UnmarshalText([]byte(fm.CleaningStatus)); err != nil {
		return nil, fmt.Errorf("seed machine %q: %w", fm.MachineID, err)
	}

	var supplies model.SupplyUpdate
	for name, level := range fm.Supplies {
		level := level
		switch name {
		case model.SupplyWater:
			supplies.Water = &level
		case model.SupplyMilk:
			supplies.Milk = &level
		case model.SupplyBeans:
			supplies.Beans = &level
		case model.SupplySugar:
			supplies.Sugar = &level
		case model.SupplyCups:
			supplies.Cups = &level
		default:
			return nil, fmt.Errorf("seed machine %q: unknown supply %q", fm.MachineID, name)
		}
	}
	if err := health.ApplySupplies(m, supplies); err != nil {
		return nil, fmt.Errorf("seed machine %q: %w", fm.MachineID, err)
	}

	day := 24 * time.Hour
	if fm.LastMaintenanceDaysAgo != nil {
		t := now.Add(-time.Duration(*fm.LastMaintenanceDaysAgo) * day)
		m.LastMaintenance = &t
	}
	if fm.NextMaintenanceInDays != nil {
		t := now.Add(time.Duration(*fm.NextMaintenanceInDays) * day)
		m.NextMaintenance = &t
	}

	return m, nil
}

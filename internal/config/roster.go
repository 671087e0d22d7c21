package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ehr/intake/internal/domain/intake"
)

// Roster is the staff and room layout loaded at startup.
type Roster struct {
	Doctors []RosterDoctor `yaml:"doctors"`
	Rooms   []RosterRoom   `yaml:"rooms"`
}

type RosterDoctor struct {
	Name           string `yaml:"name"`
	Specialization string `yaml:"specialization"`
	MaxPatients    int    `yaml:"max_patients,omitempty"`
}

// RosterRoom describes Count identical rooms. Count defaults to 1.
type RosterRoom struct {
	Category string `yaml:"category"`
	Capacity int    `yaml:"capacity,omitempty"`
	Count    int    `yaml:"count,omitempty"`
}

// DefaultRoster is the layout used when no ROSTER_FILE is set.
func DefaultRoster() *Roster {
	return &Roster{
		Doctors: []RosterDoctor{
			{Name: "Dr. Sarah Smith", Specialization: "Cardiology"},
			{Name: "Dr. Michael Johnson", Specialization: "Neurology"},
			{Name: "Dr. Emily Williams", Specialization: "Emergency Medicine"},
			{Name: "Dr. David Brown", Specialization: "Orthopedics"},
			{Name: "Dr. Lisa Davis", Specialization: "Pediatrics"},
		},
		Rooms: []RosterRoom{
			{Category: "ICU", Capacity: 1, Count: 2},
			{Category: "General", Capacity: 1, Count: 2},
			{Category: "Private", Capacity: 1},
			{Category: "Emergency", Capacity: 1},
		},
	}
}

// LoadRoster reads and validates a YAML roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Roster) Validate() error {
	for i, d := range r.Doctors {
		if d.Name == "" {
			return fmt.Errorf("roster doctor %d: name is required", i)
		}
		if d.Specialization == "" {
			return fmt.Errorf("roster doctor %q: specialization is required", d.Name)
		}
		if d.MaxPatients < 0 {
			return fmt.Errorf("roster doctor %q: max_patients must not be negative", d.Name)
		}
	}
	for i, rm := range r.Rooms {
		if _, ok := intake.ParseRoomCategory(rm.Category); !ok {
			return fmt.Errorf("roster room %d: unknown category %q", i, rm.Category)
		}
		if rm.Capacity < 0 || rm.Count < 0 {
			return fmt.Errorf("roster room %d: capacity and count must not be negative", i)
		}
	}
	return nil
}

// RoomCount is the number of rooms the roster creates.
func (r *Roster) RoomCount() int {
	n := 0
	for _, rm := range r.Rooms {
		n += max(rm.Count, 1)
	}
	return n
}

// Seeder is implemented by *intake.Service.
type Seeder interface {
	AddDoctor(ctx context.Context, name, specialization string, maxPatients int) (*intake.Doctor, error)
	AddRoom(ctx context.Context, category intake.RoomCategory, capacity int) (*intake.Room, error)
}

// Seed adds every doctor and room in roster order. Zero capacities fall
// through to the service defaults.
func (r *Roster) Seed(ctx context.Context, s Seeder) error {
	for _, d := range r.Doctors {
		if _, err := s.AddDoctor(ctx, d.Name, d.Specialization, d.MaxPatients); err != nil {
			return fmt.Errorf("seed doctor %q: %w", d.Name, err)
		}
	}
	for _, rm := range r.Rooms {
		for i := 0; i < max(rm.Count, 1); i++ {
			if _, err := s.AddRoom(ctx, intake.RoomCategory(rm.Category), rm.Capacity); err != nil {
				return fmt.Errorf("seed %s room: %w", rm.Category, err)
			}
		}
	}
	return nil
}

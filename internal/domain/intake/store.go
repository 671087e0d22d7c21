package intake

import (
	"fmt"
	"sort"
)

// Store owns every entity record. IDs come from per-kind counters that only
// move forward, so an ID freed by undo is never handed out again.
type Store struct {
	patients     map[string]*Patient
	doctors      map[string]*Doctor
	rooms        map[string]*Room
	appointments map[string]*Appointment

	patientSeq int
	doctorSeq  int
	roomSeq    int
}

func NewStore() *Store {
	return &Store{
		patients:     make(map[string]*Patient),
		doctors:      make(map[string]*Doctor),
		rooms:        make(map[string]*Room),
		appointments: make(map[string]*Appointment),
	}
}

func (s *Store) nextPatientID() string {
	s.patientSeq++
	return fmt.Sprintf("P%03d", s.patientSeq)
}

func (s *Store) nextDoctorID() string {
	s.doctorSeq++
	return fmt.Sprintf("D%03d", s.doctorSeq)
}

func (s *Store) nextRoomID() string {
	s.roomSeq++
	return fmt.Sprintf("R%03d", s.roomSeq)
}

func (s *Store) putPatient(p *Patient) error {
	if _, exists := s.patients[p.ID]; exists {
		return fmt.Errorf("store patient %s: %w", p.ID, ErrDuplicateKey)
	}
	s.patients[p.ID] = p
	return nil
}

func (s *Store) patient(id string) (*Patient, bool) {
	p, ok := s.patients[id]
	return p, ok
}

func (s *Store) deletePatient(id string) bool {
	if _, ok := s.patients[id]; !ok {
		return false
	}
	delete(s.patients, id)
	return true
}

func (s *Store) putDoctor(d *Doctor) {
	s.doctors[d.ID] = d
}

func (s *Store) doctor(id string) (*Doctor, bool) {
	d, ok := s.doctors[id]
	return d, ok
}

func (s *Store) putRoom(r *Room) {
	s.rooms[r.ID] = r
}

func (s *Store) room(id string) (*Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

func (s *Store) putAppointment(a *Appointment) {
	s.appointments[a.ID] = a
}

// deleteAppointmentsFor drops every appointment booked for patientID and
// unlinks it from the doctor's schedule. Empty schedule days are removed.
func (s *Store) deleteAppointmentsFor(patientID string) int {
	removed := 0
	for id, a := range s.appointments {
		if a.PatientID != patientID {
			continue
		}
		if d, ok := s.doctors[a.DoctorID]; ok {
			day := a.ScheduledAt.Format(scheduleDayLayout)
			ids := d.Schedule[day]
			for i, apptID := range ids {
				if apptID == id {
					ids = append(ids[:i], ids[i+1:]...)
					break
				}
			}
			if len(ids) == 0 {
				delete(d.Schedule, day)
			} else {
				d.Schedule[day] = ids
			}
		}
		delete(s.appointments, id)
		removed++
	}
	return removed
}

// sortedDoctors returns doctors in ascending ID order.
func (s *Store) sortedDoctors() []*Doctor {
	out := make([]*Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedRooms returns rooms in ascending ID order.
func (s *Store) sortedRooms() []*Room {
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) sortedAppointments() []*Appointment {
	out := make([]*Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

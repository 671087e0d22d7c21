package intake

import (
	"context"
	"fmt"
)

// QueueStatus summarizes both waiting lists. Patients are listed in the
// order they would be admitted.
type QueueStatus struct {
	EmergencyCount int        `json:"emergency_count"`
	RegularCount   int        `json:"regular_count"`
	TotalWaiting   int        `json:"total_waiting"`
	NextEmergency  *Patient   `json:"next_emergency,omitempty"`
	NextRegular    *Patient   `json:"next_regular,omitempty"`
	Emergency      []*Patient `json:"emergency"`
	Regular        []*Patient `json:"regular"`
}

func (s *Service) QueueStatus(_ context.Context) *QueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs := &QueueStatus{
		EmergencyCount: s.emergency.Len(),
		RegularCount:   s.regular.Len(),
		Emergency:      cloneAll(s.emergency.Snapshot()),
		Regular:        cloneAll(s.regular.Snapshot()),
	}
	qs.TotalWaiting = qs.EmergencyCount + qs.RegularCount
	if len(qs.Emergency) > 0 {
		qs.NextEmergency = qs.Emergency[0]
	}
	if len(qs.Regular) > 0 {
		qs.NextRegular = qs.Regular[0]
	}
	return qs
}

// Statistics is a point-in-time summary of the hospital.
type Statistics struct {
	TotalPatients         int     `json:"total_patients"`
	AdmittedPatients      int     `json:"admitted_patients"`
	DischargedPatients    int     `json:"discharged_patients"`
	WaitingPatients       int     `json:"waiting_patients"`
	TotalRooms            int     `json:"total_rooms"`
	FullRooms             int     `json:"full_rooms"`
	AvailableRooms        int     `json:"available_rooms"`
	RoomOccupancyRate     float64 `json:"room_occupancy_rate"`
	TotalDoctors          int     `json:"total_doctors"`
	BusyDoctors           int     `json:"busy_doctors"`
	AvailableDoctors      int     `json:"available_doctors"`
	DoctorUtilization     float64 `json:"doctor_utilization"`
	ScheduledAppointments int     `json:"scheduled_appointments"`
}

func (s *Service) Statistics(_ context.Context) *Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Statistics{
		TotalPatients:   len(s.store.patients),
		WaitingPatients: s.emergency.Len() + s.regular.Len(),
		TotalRooms:      len(s.store.rooms),
		TotalDoctors:    len(s.store.doctors),
	}
	for _, p := range s.store.patients {
		switch p.Status {
		case StatusAdmitted:
			st.AdmittedPatients++
		case StatusDischarged:
			st.DischargedPatients++
		}
	}
	for _, r := range s.store.rooms {
		if !r.Available() {
			st.FullRooms++
		}
	}
	st.AvailableRooms = st.TotalRooms - st.FullRooms
	for _, d := range s.store.doctors {
		if d.Load() > 0 {
			st.BusyDoctors++
		}
	}
	st.AvailableDoctors = st.TotalDoctors - st.BusyDoctors
	for _, a := range s.store.appointments {
		if a.Status == AppointmentScheduled {
			st.ScheduledAppointments++
		}
	}
	if st.TotalRooms > 0 {
		st.RoomOccupancyRate = float64(st.FullRooms) / float64(st.TotalRooms) * 100
	}
	if st.TotalDoctors > 0 {
		st.DoctorUtilization = float64(st.BusyDoctors) / float64(st.TotalDoctors) * 100
	}
	return st
}

// ListPatients returns every patient in index order.
func (s *Service) ListPatients(_ context.Context) []*Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.index.InOrder())
}

func (s *Service) ListDoctors(_ context.Context) []*Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.store.sortedDoctors()
	out := make([]*Doctor, len(docs))
	for i, d := range docs {
		out[i] = d.clone()
	}
	return out
}

// ListRooms returns rooms grouped by category, then by ID.
func (s *Service) ListRooms(_ context.Context) []RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := s.store.sortedRooms()
	out := make([]RoomView, 0, len(rooms))
	for _, cat := range RoomCategories {
		for _, r := range rooms {
			if r.Category == cat {
				out = append(out, viewRoom(r.clone()))
			}
		}
	}
	return out
}

// ListAppointments returns appointments ordered by scheduled time.
func (s *Service) ListAppointments(_ context.Context) []*Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	appts := s.store.sortedAppointments()
	out := make([]*Appointment, len(appts))
	for i, a := range appts {
		cp := *a
		out[i] = &cp
	}
	return out
}

func (s *Service) GetDoctor(_ context.Context, id string) (*Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.store.doctor(id)
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d.clone(), nil
}

func (s *Service) GetRoom(_ context.Context, id string) (RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.store.room(id)
	if !ok {
		return RoomView{}, fmt.Errorf("room %s: %w", id, ErrNotFound)
	}
	return viewRoom(r.clone()), nil
}

func cloneAll(ps []*Patient) []*Patient {
	out := make([]*Patient, len(ps))
	for i, p := range ps {
		out[i] = p.clone()
	}
	return out
}

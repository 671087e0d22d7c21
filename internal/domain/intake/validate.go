package intake

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Request bodies accepted by the HTTP handler. Validation happens here, at
// the edge; the Service trusts its inputs.

type RegisterPatientRequest struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Condition string `json:"condition"`
	Priority  int    `json:"priority"`
}

func (r *RegisterPatientRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Condition = strings.TrimSpace(r.Condition)
	if utf8.RuneCountInString(r.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters: %w", ErrValidation)
	}
	if r.Age < 1 || r.Age > 120 {
		return fmt.Errorf("age must be between 1 and 120: %w", ErrValidation)
	}
	if utf8.RuneCountInString(r.Condition) < 3 {
		return fmt.Errorf("condition must be at least 3 characters: %w", ErrValidation)
	}
	if r.Priority < 1 || r.Priority > 4 {
		return fmt.Errorf("priority must be between 1 and 4: %w", ErrValidation)
	}
	return nil
}

type AddDoctorRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	MaxPatients    int    `json:"max_patients"`
}

// Validate allows MaxPatients to be zero, meaning the configured default.
func (r *AddDoctorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Specialization = strings.TrimSpace(r.Specialization)
	if utf8.RuneCountInString(r.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters: %w", ErrValidation)
	}
	if utf8.RuneCountInString(r.Specialization) < 3 {
		return fmt.Errorf("specialization must be at least 3 characters: %w", ErrValidation)
	}
	if r.MaxPatients < 0 || r.MaxPatients > 50 {
		return fmt.Errorf("max_patients must be between 0 and 50 (0 = default): %w", ErrValidation)
	}
	return nil
}

type AddRoomRequest struct {
	Category string `json:"category"`
	Capacity int    `json:"capacity"`
}

func (r *AddRoomRequest) Validate() error {
	if _, ok := ParseRoomCategory(r.Category); !ok {
		return fmt.Errorf("%q: %w", r.Category, ErrInvalidRoomCategory)
	}
	if r.Capacity < 0 || r.Capacity > 10 {
		return fmt.Errorf("capacity must be between 0 and 10 (0 = default): %w", ErrValidation)
	}
	return nil
}

type ScheduleAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
}

func (r *ScheduleAppointmentRequest) Validate() error {
	r.PatientID = strings.ToUpper(strings.TrimSpace(r.PatientID))
	r.DoctorID = strings.ToUpper(strings.TrimSpace(r.DoctorID))
	if r.PatientID == "" {
		return fmt.Errorf("patient_id is required: %w", ErrValidation)
	}
	if r.DoctorID == "" {
		return fmt.Errorf("doctor_id is required: %w", ErrValidation)
	}
	if r.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required: %w", ErrValidation)
	}
	return nil
}

type MedicalRecordRequest struct {
	Record string `json:"record"`
}

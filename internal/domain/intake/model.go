package intake

import (
	"encoding/json"
	"strings"
	"time"
)

// PatientStatus is the lifecycle state of a patient.
type PatientStatus string

const (
	StatusWaiting    PatientStatus = "Waiting"
	StatusAdmitted   PatientStatus = "Admitted"
	StatusDischarged PatientStatus = "Discharged"
)

// RoomCategory is the acuity class of a room.
type RoomCategory string

const (
	RoomICU       RoomCategory = "ICU"
	RoomGeneral   RoomCategory = "General"
	RoomPrivate   RoomCategory = "Private"
	RoomEmergency RoomCategory = "Emergency"
)

// RoomCategories lists the fixed set of categories in display order.
var RoomCategories = []RoomCategory{RoomICU, RoomGeneral, RoomPrivate, RoomEmergency}

// ParseRoomCategory resolves a category name case-insensitively.
func ParseRoomCategory(s string) (RoomCategory, bool) {
	for _, c := range RoomCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// AppointmentStatus is the state of a scheduled appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

const DefaultAppointmentType = "Consultation"

// scheduleDayLayout keys Doctor.Schedule by calendar day.
const scheduleDayLayout = "2006-01-02"

// Priority labels included in the JSON form of a patient.
var priorityLabels = map[int]string{1: "Critical", 2: "High", 3: "Medium", 4: "Low"}

// PriorityLabel returns the display name of a priority level.
func PriorityLabel(p int) string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return "Unknown"
}

// HistoryEntry is one line of a patient's medical history.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Record    string    `json:"record"`
}

type Patient struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Age          int            `json:"age"`
	Condition    string         `json:"condition"`
	Priority     int            `json:"priority"`
	Status       PatientStatus  `json:"status"`
	RoomID       *string        `json:"room_id,omitempty"`
	DoctorID     *string        `json:"doctor_id,omitempty"`
	History      []HistoryEntry `json:"medical_history"`
	RegisteredAt time.Time      `json:"registered_at"`

	// ticket orders equal priorities in the emergency queue.
	ticket uint64
}

// IsEmergency reports whether the patient is routed to the emergency queue.
func (p *Patient) IsEmergency() bool {
	return p.Priority <= 2
}

func (p *Patient) addHistory(at time.Time, record string) {
	p.History = append(p.History, HistoryEntry{Timestamp: at, Record: record})
}

// MarshalJSON adds the derived priority_label field.
func (p Patient) MarshalJSON() ([]byte, error) {
	type plain Patient
	return json.Marshal(struct {
		plain
		PriorityLabel string `json:"priority_label"`
	}{plain(p), PriorityLabel(p.Priority)})
}

func (p *Patient) clone() *Patient {
	cp := *p
	if p.RoomID != nil {
		r := *p.RoomID
		cp.RoomID = &r
	}
	if p.DoctorID != nil {
		d := *p.DoctorID
		cp.DoctorID = &d
	}
	cp.History = append([]HistoryEntry(nil), p.History...)
	return &cp
}

type Doctor struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Specialization  string              `json:"specialization"`
	MaxPatients     int                 `json:"max_patients"`
	CurrentPatients []string            `json:"current_patients"`
	Schedule        map[string][]string `json:"schedule"`
}

// Load is the number of patients currently assigned.
func (d *Doctor) Load() int {
	return len(d.CurrentPatients)
}

// HasCapacity reports whether the doctor can take another patient.
func (d *Doctor) HasCapacity() bool {
	return len(d.CurrentPatients) < d.MaxPatients
}

func (d *Doctor) release(patientID string) bool {
	for i, id := range d.CurrentPatients {
		if id == patientID {
			d.CurrentPatients = append(d.CurrentPatients[:i], d.CurrentPatients[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Doctor) clone() *Doctor {
	cp := *d
	cp.CurrentPatients = append([]string(nil), d.CurrentPatients...)
	cp.Schedule = make(map[string][]string, len(d.Schedule))
	for day, ids := range d.Schedule {
		cp.Schedule[day] = append([]string(nil), ids...)
	}
	return &cp
}

type Room struct {
	ID        string       `json:"id"`
	Category  RoomCategory `json:"category"`
	Capacity  int          `json:"capacity"`
	Occupants []string     `json:"occupants"`
}

// Occupied is the number of beds in use.
func (r *Room) Occupied() int {
	return len(r.Occupants)
}

// Available is derived from occupancy and never stored.
func (r *Room) Available() bool {
	return len(r.Occupants) < r.Capacity
}

func (r *Room) release(patientID string) bool {
	for i, id := range r.Occupants {
		if id == patientID {
			r.Occupants = append(r.Occupants[:i], r.Occupants[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) clone() *Room {
	cp := *r
	cp.Occupants = append([]string(nil), r.Occupants...)
	return &cp
}

// RoomView is the JSON shape of a room, including derived fields.
type RoomView struct {
	*Room
	Occupied  int  `json:"occupied"`
	Available bool `json:"available"`
}

func viewRoom(r *Room) RoomView {
	return RoomView{Room: r, Occupied: r.Occupied(), Available: r.Available()}
}

type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	DoctorID    string            `json:"doctor_id"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Type        string            `json:"type"`
	Status      AppointmentStatus `json:"status"`
}

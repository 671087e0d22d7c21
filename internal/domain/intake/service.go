package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultDoctorCapacity  = 10
	DefaultRoomCapacity    = 1
	DefaultAppointmentLead = time.Hour
)

// Recorder receives operational measurements. A nil Recorder is allowed.
type Recorder interface {
	ObserveRegistration(queue string)
	ObserveAdmission(outcome string)
	ObserveDischarge()
	ObserveUndo(kind string, reversed bool)
	SetQueueDepth(queue string, depth int)
	SetBedUsage(occupied, capacity int)
}

// Event is emitted after every state change for audit purposes.
type Event struct {
	Type      string
	PatientID string
	RoomID    string
	DoctorID  string
	Detail    string
	At        time.Time
}

// EventSink stores or forwards events. Sink failures are logged, never
// returned to the caller.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

// WithAppointmentLead sets how far in the future an appointment must be.
func WithAppointmentLead(d time.Duration) Option {
	return func(s *Service) { s.appointmentLead = d }
}

// WithDefaultCapacities sets the capacities used when AddDoctor or AddRoom
// is given a non-positive value.
func WithDefaultCapacities(doctor, room int) Option {
	return func(s *Service) {
		s.defaultDoctorCap = doctor
		s.defaultRoomCap = room
	}
}

// Service is the admission engine. One mutex guards the store, index,
// queues and log together, so every operation is a single critical section.
type Service struct {
	mu        sync.Mutex
	store     *Store
	index     *PatientIndex
	emergency *EmergencyQueue
	regular   *RegularQueue
	alloc     *Allocator
	oplog     *OperationLog

	log              zerolog.Logger
	now              func() time.Time
	rec              Recorder
	sinks            []EventSink
	appointmentLead  time.Duration
	defaultDoctorCap int
	defaultRoomCap   int
}

func NewService(opts ...Option) *Service {
	store := NewStore()
	s := &Service{
		store:            store,
		index:            NewPatientIndex(),
		emergency:        NewEmergencyQueue(),
		regular:          NewRegularQueue(),
		alloc:            NewAllocator(store),
		oplog:            NewOperationLog(),
		log:              zerolog.Nop(),
		now:              time.Now,
		appointmentLead:  DefaultAppointmentLead,
		defaultDoctorCap: DefaultDoctorCapacity,
		defaultRoomCap:   DefaultRoomCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -- Staff and rooms --

func (s *Service) AddDoctor(ctx context.Context, name, specialization string, maxPatients int) (*Doctor, error) {
	if maxPatients <= 0 {
		maxPatients = s.defaultDoctorCap
	}
	s.mu.Lock()
	d := &Doctor{
		ID:             s.store.nextDoctorID(),
		Name:           name,
		Specialization: specialization,
		MaxPatients:    maxPatients,
		Schedule:       make(map[string][]string),
	}
	s.store.putDoctor(d)
	out := d.clone()
	s.mu.Unlock()

	s.log.Info().Str("doctor_id", out.ID).Str("specialization", out.Specialization).
		Int("max_patients", out.MaxPatients).Msg("doctor added")
	s.emit(ctx, Event{Type: "doctor_added", DoctorID: out.ID, Detail: out.Name})
	return out, nil
}

func (s *Service) AddRoom(ctx context.Context, category RoomCategory, capacity int) (*Room, error) {
	cat, ok := ParseRoomCategory(string(category))
	if !ok {
		return nil, fmt.Errorf("%q: %w", category, ErrInvalidRoomCategory)
	}
	if capacity <= 0 {
		capacity = s.defaultRoomCap
	}
	s.mu.Lock()
	r := &Room{ID: s.store.nextRoomID(), Category: cat, Capacity: capacity}
	s.store.putRoom(r)
	out := r.clone()
	s.refreshGaugesLocked()
	s.mu.Unlock()

	s.log.Info().Str("room_id", out.ID).Str("category", string(out.Category)).
		Int("capacity", out.Capacity).Msg("room added")
	s.emit(ctx, Event{Type: "room_added", RoomID: out.ID, Detail: string(out.Category)})
	return out, nil
}

// -- Intake --

// RegisterPatient creates a Waiting patient and routes it to the emergency
// queue (priority 1-2) or the regular queue (3-4). Inputs are assumed to be
// validated by the caller.
func (s *Service) RegisterPatient(ctx context.Context, name string, age int, condition string, priority int) (*Patient, error) {
	s.mu.Lock()
	p := &Patient{
		ID:           s.store.nextPatientID(),
		Name:         name,
		Age:          age,
		Condition:    condition,
		Priority:     priority,
		Status:       StatusWaiting,
		RegisteredAt: s.now(),
	}
	if err := s.store.putPatient(p); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.index.Insert(p); err != nil {
		s.store.deletePatient(p.ID)
		s.mu.Unlock()
		return nil, err
	}
	queue := s.enqueueLocked(p)
	s.oplog.RecordRegister(p.ID)
	out := p.clone()
	s.refreshGaugesLocked()
	s.mu.Unlock()

	if s.rec != nil {
		s.rec.ObserveRegistration(queue)
	}
	s.log.Info().Str("patient_id", out.ID).Int("priority", out.Priority).
		Str("queue", queue).Msg("patient registered")
	s.emit(ctx, Event{Type: "patient_registered", PatientID: out.ID, Detail: queue})
	return out, nil
}

func (s *Service) enqueueLocked(p *Patient) string {
	if p.IsEmergency() {
		s.emergency.Push(p)
		return "emergency"
	}
	s.regular.Enqueue(p)
	return "regular"
}

// AdmitNext takes the next waiting patient, emergency queue first, and gives
// it a room and a doctor. When either resource is missing nothing is
// allocated and the patient goes back to the position it was taken from.
func (s *Service) AdmitNext(ctx context.Context) (*Patient, error) {
	s.mu.Lock()
	var (
		p      *Patient
		source string
	)
	if p = s.emergency.Pop(); p != nil {
		source = "emergency"
	} else if p = s.regular.Dequeue(); p != nil {
		source = "regular"
	} else {
		s.mu.Unlock()
		s.observeAdmission("no_patient")
		return nil, ErrNoPatientWaiting
	}

	room, doc, err := s.alloc.Reserve(p)
	if err != nil {
		if source == "emergency" {
			s.emergency.Push(p)
		} else {
			s.regular.RequeueFront(p)
		}
		s.refreshGaugesLocked()
		id := p.ID
		s.mu.Unlock()

		outcome := "no_room"
		if errors.Is(err, ErrNoDoctorAvailable) {
			outcome = "no_doctor"
		}
		s.observeAdmission(outcome)
		s.log.Warn().Err(err).Str("patient_id", id).Str("queue", source).Msg("admission deferred")
		return nil, fmt.Errorf("admit %s: %w", id, err)
	}

	s.alloc.Commit(p, room, doc)
	p.addHistory(s.now(), fmt.Sprintf("Admitted to %s room %s under %s", room.Category, room.ID, doc.ID))
	out := p.clone()
	s.refreshGaugesLocked()
	s.mu.Unlock()

	s.observeAdmission("admitted")
	s.log.Info().Str("patient_id", out.ID).Str("room_id", room.ID).Str("doctor_id", doc.ID).
		Str("queue", source).Msg("patient admitted")
	s.emit(ctx, Event{Type: "patient_admitted", PatientID: out.ID, RoomID: room.ID, DoctorID: doc.ID, Detail: source})
	return out, nil
}

func (s *Service) SearchPatient(_ context.Context, id string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.index.Search(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrPatientNotFound)
	}
	return p.clone(), nil
}

// DischargePatient frees the room and doctor held by an admitted patient.
func (s *Service) DischargePatient(ctx context.Context, id string) error {
	s.mu.Lock()
	p, ok := s.store.patient(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrPatientNotFound)
	}
	if p.Status != StatusAdmitted {
		s.mu.Unlock()
		return fmt.Errorf("%s is %s: %w", id, p.Status, ErrNotAdmitted)
	}
	var roomID, docID string
	if p.RoomID != nil {
		roomID = *p.RoomID
	}
	if p.DoctorID != nil {
		docID = *p.DoctorID
	}
	s.alloc.Release(p)
	p.Status = StatusDischarged
	p.addHistory(s.now(), fmt.Sprintf("Discharged from room %s", roomID))
	s.oplog.RecordDischarge(id)
	s.refreshGaugesLocked()
	s.mu.Unlock()

	if s.rec != nil {
		s.rec.ObserveDischarge()
	}
	s.log.Info().Str("patient_id", id).Str("room_id", roomID).Str("doctor_id", docID).Msg("patient discharged")
	s.emit(ctx, Event{Type: "patient_discharged", PatientID: id, RoomID: roomID, DoctorID: docID})
	return nil
}

// AddMedicalRecord appends a timestamped entry to a patient's history.
func (s *Service) AddMedicalRecord(ctx context.Context, id, record string) (*Patient, error) {
	record = strings.TrimSpace(record)
	if record == "" {
		return nil, fmt.Errorf("record is required: %w", ErrValidation)
	}
	s.mu.Lock()
	p, ok := s.store.patient(id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", id, ErrPatientNotFound)
	}
	p.addHistory(s.now(), record)
	out := p.clone()
	s.mu.Unlock()

	s.emit(ctx, Event{Type: "medical_record_added", PatientID: id})
	return out, nil
}

// -- Appointments --

func (s *Service) ScheduleAppointment(ctx context.Context, patientID, doctorID string, at time.Time, kind string) (*Appointment, error) {
	if kind = strings.TrimSpace(kind); kind == "" {
		kind = DefaultAppointmentType
	}
	if at.Before(s.now().Add(s.appointmentLead)) {
		return nil, ErrInvalidTime
	}

	s.mu.Lock()
	if _, ok := s.store.patient(patientID); !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", patientID, ErrPatientNotFound)
	}
	doc, ok := s.store.doctor(doctorID)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", doctorID, ErrDoctorNotFound)
	}
	a := &Appointment{
		ID:          uuid.New().String(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Type:        kind,
		Status:      AppointmentScheduled,
	}
	s.store.putAppointment(a)
	day := at.Format(scheduleDayLayout)
	doc.Schedule[day] = append(doc.Schedule[day], a.ID)
	out := *a
	s.mu.Unlock()

	s.log.Info().Str("appointment_id", out.ID).Str("patient_id", patientID).Str("doctor_id", doctorID).
		Time("scheduled_at", at).Msg("appointment scheduled")
	s.emit(ctx, Event{Type: "appointment_scheduled", PatientID: patientID, DoctorID: doctorID, Detail: out.ID})
	return &out, nil
}

// -- Undo --

// UndoLast reverses the newest logged operation. Registrations are fully
// reversed; discharges are not reversible and only produce a notice.
func (s *Service) UndoLast(ctx context.Context) (*UndoResult, error) {
	s.mu.Lock()
	op, ok := s.oplog.Pop()
	if !ok {
		s.mu.Unlock()
		return nil, ErrNothingToUndo
	}

	res := &UndoResult{Operation: op}
	switch op.Kind {
	case OpRegister:
		p, exists := s.store.patient(op.PatientID)
		if !exists {
			res.Message = fmt.Sprintf("patient %s was already removed", op.PatientID)
			break
		}
		if p.Status == StatusAdmitted {
			s.alloc.Release(p)
		}
		s.emergency.Remove(p.ID)
		s.regular.Remove(p.ID)
		s.index.Remove(p.ID)
		s.store.deletePatient(p.ID)
		cancelled := s.store.deleteAppointmentsFor(p.ID)
		res.Reversed = true
		res.Message = fmt.Sprintf("registration of %s (%s) undone", p.ID, p.Name)
		if cancelled > 0 {
			res.Message += fmt.Sprintf(", %d appointment(s) removed", cancelled)
		}
	case OpDischarge:
		res.Message = fmt.Sprintf("undo of discharge is not supported; %s stays discharged", op.PatientID)
	}
	s.refreshGaugesLocked()
	s.mu.Unlock()

	if s.rec != nil {
		s.rec.ObserveUndo(string(op.Kind), res.Reversed)
	}
	s.log.Info().Str("operation", string(op.Kind)).Str("patient_id", op.PatientID).
		Bool("reversed", res.Reversed).Msg(res.Message)
	if res.Reversed {
		s.emit(ctx, Event{Type: "undo_" + string(op.Kind), PatientID: op.PatientID})
	}
	return res, nil
}

// -- Helpers --

func (s *Service) observeAdmission(outcome string) {
	if s.rec != nil {
		s.rec.ObserveAdmission(outcome)
	}
}

func (s *Service) refreshGaugesLocked() {
	if s.rec == nil {
		return
	}
	s.rec.SetQueueDepth("emergency", s.emergency.Len())
	s.rec.SetQueueDepth("regular", s.regular.Len())
	occupied, capacity := 0, 0
	for _, r := range s.store.rooms {
		occupied += r.Occupied()
		capacity += r.Capacity
	}
	s.rec.SetBedUsage(occupied, capacity)
}

func (s *Service) emit(ctx context.Context, ev Event) {
	if len(s.sinks) == 0 {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			s.log.Error().Err(err).Str("event", ev.Type).Msg("failed to record event")
		}
	}
}

package intake

import "strings"

var (
	acuteKeywords    = []string{"critical", "emergency", "heart attack", "stroke", "trauma"}
	surgicalKeywords = []string{"surgery", "operation", "serious"}

	acutePreference    = []RoomCategory{RoomICU, RoomEmergency, RoomGeneral, RoomPrivate}
	surgicalPreference = []RoomCategory{RoomICU, RoomGeneral, RoomPrivate, RoomEmergency}
	defaultPreference  = []RoomCategory{RoomICU, RoomEmergency, RoomGeneral, RoomPrivate}
)

// RoomPreference derives the category search order from the condition text.
func RoomPreference(condition string) []RoomCategory {
	c := strings.ToLower(condition)
	switch {
	case containsAny(c, acuteKeywords):
		return acutePreference
	case containsAny(c, surgicalKeywords):
		return surgicalPreference
	default:
		return defaultPreference
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Allocator selects rooms and doctors from the store. Selection never
// mutates anything; grants are applied by commit once both sides are found.
type Allocator struct {
	store *Store
}

func NewAllocator(store *Store) *Allocator {
	return &Allocator{store: store}
}

// FindRoom returns the first room with a free bed, scanning categories in
// preference order and rooms by ID within a category. This is first fit.
func (a *Allocator) FindRoom(condition string) *Room {
	rooms := a.store.sortedRooms()
	for _, cat := range RoomPreference(condition) {
		for _, r := range rooms {
			if r.Category == cat && r.Available() {
				return r
			}
		}
	}
	return nil
}

// SelectDoctor returns the least loaded doctor below capacity. Ties go to the
// lowest ID.
func (a *Allocator) SelectDoctor() *Doctor {
	var best *Doctor
	for _, d := range a.store.sortedDoctors() {
		if !d.HasCapacity() {
			continue
		}
		if best == nil || d.Load() < best.Load() {
			best = d
		}
	}
	return best
}

// Reserve picks a room and a doctor for p. Either both are returned or the
// error says which resource was missing; no state changes in either case.
func (a *Allocator) Reserve(p *Patient) (*Room, *Doctor, error) {
	room := a.FindRoom(p.Condition)
	if room == nil {
		return nil, nil, ErrNoRoomAvailable
	}
	doc := a.SelectDoctor()
	if doc == nil {
		return nil, nil, ErrNoDoctorAvailable
	}
	return room, doc, nil
}

// Commit applies a reservation made by Reserve.
func (a *Allocator) Commit(p *Patient, room *Room, doc *Doctor) {
	room.Occupants = append(room.Occupants, p.ID)
	doc.CurrentPatients = append(doc.CurrentPatients, p.ID)
	roomID, docID := room.ID, doc.ID
	p.RoomID = &roomID
	p.DoctorID = &docID
	p.Status = StatusAdmitted
}

// Release frees whatever room and doctor p currently holds.
func (a *Allocator) Release(p *Patient) {
	if p.RoomID != nil {
		if r, ok := a.store.room(*p.RoomID); ok {
			r.release(p.ID)
		}
	}
	if p.DoctorID != nil {
		if d, ok := a.store.doctor(*p.DoctorID); ok {
			d.release(p.ID)
		}
	}
	p.RoomID = nil
	p.DoctorID = nil
}

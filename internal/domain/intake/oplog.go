package intake

// OperationKind tags an undo log entry.
type OperationKind string

const (
	OpRegister  OperationKind = "register"
	OpDischarge OperationKind = "discharge"
)

type Operation struct {
	Kind      OperationKind `json:"kind"`
	PatientID string        `json:"patient_id"`
}

// OperationLog is a LIFO stack of reversible operations.
type OperationLog struct {
	entries []Operation
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

func (l *OperationLog) RecordRegister(patientID string) {
	l.entries = append(l.entries, Operation{Kind: OpRegister, PatientID: patientID})
}

func (l *OperationLog) RecordDischarge(patientID string) {
	l.entries = append(l.entries, Operation{Kind: OpDischarge, PatientID: patientID})
}

// Pop removes and returns the newest entry.
func (l *OperationLog) Pop() (Operation, bool) {
	n := len(l.entries)
	if n == 0 {
		return Operation{}, false
	}
	op := l.entries[n-1]
	l.entries = l.entries[:n-1]
	return op, true
}

func (l *OperationLog) Len() int {
	return len(l.entries)
}

// UndoResult describes what an undo did.
type UndoResult struct {
	Operation Operation `json:"operation"`
	Reversed  bool      `json:"reversed"`
	Message   string    `json:"message"`
}

package intake

import "fmt"

// PatientIndex is an unbalanced binary search tree keyed by patient ID.
// Keys compare as plain strings, so "P010" sorts before "P2".
type PatientIndex struct {
	root *indexNode
	size int
}

type indexNode struct {
	patient     *Patient
	left, right *indexNode
}

func NewPatientIndex() *PatientIndex {
	return &PatientIndex{}
}

// Insert adds p. An ID that is already present is rejected with ErrDuplicateKey.
func (t *PatientIndex) Insert(p *Patient) error {
	link := &t.root
	for *link != nil {
		n := *link
		switch {
		case p.ID < n.patient.ID:
			link = &n.left
		case p.ID > n.patient.ID:
			link = &n.right
		default:
			return fmt.Errorf("index patient %s: %w", p.ID, ErrDuplicateKey)
		}
	}
	*link = &indexNode{patient: p}
	t.size++
	return nil
}

func (t *PatientIndex) Search(id string) (*Patient, bool) {
	n := t.root
	for n != nil {
		switch {
		case id < n.patient.ID:
			n = n.left
		case id > n.patient.ID:
			n = n.right
		default:
			return n.patient, true
		}
	}
	return nil, false
}

// Remove deletes id from the tree and reports whether it was present.
func (t *PatientIndex) Remove(id string) bool {
	link := &t.root
	for *link != nil && (*link).patient.ID != id {
		if id < (*link).patient.ID {
			link = &(*link).left
		} else {
			link = &(*link).right
		}
	}
	n := *link
	if n == nil {
		return false
	}
	switch {
	case n.left == nil:
		*link = n.right
	case n.right == nil:
		*link = n.left
	default:
		// Splice in the in-order successor.
		succLink := &n.right
		for (*succLink).left != nil {
			succLink = &(*succLink).left
		}
		succ := *succLink
		*succLink = succ.right
		succ.left, succ.right = n.left, n.right
		*link = succ
	}
	t.size--
	return true
}

// InOrder returns every patient in ascending ID order.
func (t *PatientIndex) InOrder() []*Patient {
	out := make([]*Patient, 0, t.size)
	var walk func(n *indexNode)
	walk = func(n *indexNode) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.patient)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *PatientIndex) Len() int {
	return t.size
}

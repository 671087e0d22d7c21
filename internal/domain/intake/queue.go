package intake

import (
	"container/heap"
	"container/list"
)

// EmergencyQueue orders waiting patients by priority, then by the ticket they
// were issued on first arrival. Re-pushing a patient keeps its ticket, so a
// patient returned after a failed admission goes back to its old position.
type EmergencyQueue struct {
	items      patientHeap
	nextTicket uint64
}

type patientHeap []*Patient

func (h patientHeap) Len() int { return len(h) }

func (h patientHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].ticket < h[j].ticket
}

func (h patientHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *patientHeap) Push(x any) {
	*h = append(*h, x.(*Patient))
}

func (h *patientHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return p
}

func NewEmergencyQueue() *EmergencyQueue {
	return &EmergencyQueue{}
}

func (q *EmergencyQueue) Push(p *Patient) {
	if p.ticket == 0 {
		q.nextTicket++
		p.ticket = q.nextTicket
	}
	heap.Push(&q.items, p)
}

// Pop removes the most urgent patient, or returns nil when empty.
func (q *EmergencyQueue) Pop() *Patient {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Patient)
}

func (q *EmergencyQueue) Peek() *Patient {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *EmergencyQueue) Len() int {
	return len(q.items)
}

// Remove filters id out of the queue and restores heap order.
func (q *EmergencyQueue) Remove(id string) bool {
	kept := q.items[:0]
	removed := false
	for _, p := range q.items {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	heap.Init(&q.items)
	return removed
}

// Snapshot returns the queue contents in pop order without modifying it.
func (q *EmergencyQueue) Snapshot() []*Patient {
	cp := make(patientHeap, len(q.items))
	copy(cp, q.items)
	out := make([]*Patient, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(*Patient))
	}
	return out
}

// RegularQueue is a FIFO of non-urgent patients.
type RegularQueue struct {
	l *list.List
}

func NewRegularQueue() *RegularQueue {
	return &RegularQueue{l: list.New()}
}

func (q *RegularQueue) Enqueue(p *Patient) {
	q.l.PushBack(p)
}

// Dequeue removes the oldest patient, or returns nil when empty.
func (q *RegularQueue) Dequeue() *Patient {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	return q.l.Remove(e).(*Patient)
}

func (q *RegularQueue) PeekFront() *Patient {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Patient)
}

// RequeueFront puts p back at the head of the queue.
func (q *RegularQueue) RequeueFront(p *Patient) {
	q.l.PushFront(p)
}

func (q *RegularQueue) Len() int {
	return q.l.Len()
}

func (q *RegularQueue) Remove(id string) bool {
	removed := false
	for e := q.l.Front(); e != nil; {
		next := e.Next()
		if e.Value.(*Patient).ID == id {
			q.l.Remove(e)
			removed = true
		}
		e = next
	}
	return removed
}

func (q *RegularQueue) Snapshot() []*Patient {
	out := make([]*Patient, 0, q.l.Len())
	for e := q.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Patient))
	}
	return out
}

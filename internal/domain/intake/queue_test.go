package intake

import "testing"

func TestEmergencyQueue_PriorityOrder(t *testing.T) {
	q := NewEmergencyQueue()
	q.Push(&Patient{ID: "P001", Priority: 2})
	q.Push(&Patient{ID: "P002", Priority: 1})
	q.Push(&Patient{ID: "P003", Priority: 2})
	q.Push(&Patient{ID: "P004", Priority: 1})

	want := []string{"P002", "P004", "P001", "P003"}
	for _, id := range want {
		p := q.Pop()
		if p == nil || p.ID != id {
			t.Fatalf("expected %s, got %v", id, p)
		}
	}
	if q.Pop() != nil {
		t.Error("expected empty queue to return nil")
	}
}

func TestEmergencyQueue_RequeueKeepsPosition(t *testing.T) {
	q := NewEmergencyQueue()
	q.Push(&Patient{ID: "P001", Priority: 2})
	q.Push(&Patient{ID: "P002", Priority: 2})

	first := q.Pop()
	q.Push(first)

	if got := q.Peek(); got.ID != "P001" {
		t.Errorf("expected requeued P001 at head, got %s", got.ID)
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}
}

func TestEmergencyQueue_RemoveRestoresHeap(t *testing.T) {
	q := NewEmergencyQueue()
	for i, prio := range []int{2, 1, 2, 1, 1} {
		q.Push(&Patient{ID: string(rune('A' + i)), Priority: prio})
	}
	if !q.Remove("B") {
		t.Fatal("expected B to be removed")
	}
	if q.Remove("Z") {
		t.Error("expected unknown id to report false")
	}

	snap := q.Snapshot()
	want := []string{"D", "E", "A", "C"}
	for i, id := range want {
		if snap[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, snap[i].ID)
		}
	}
	if q.Len() != 4 {
		t.Errorf("snapshot must not drain the queue, len=%d", q.Len())
	}
}

func TestRegularQueue_FIFO(t *testing.T) {
	q := NewRegularQueue()
	q.Enqueue(&Patient{ID: "P001"})
	q.Enqueue(&Patient{ID: "P002"})
	q.Enqueue(&Patient{ID: "P003"})

	if q.PeekFront().ID != "P001" {
		t.Errorf("expected P001 at front")
	}
	p := q.Dequeue()
	q.RequeueFront(p)
	for _, id := range []string{"P001", "P002", "P003"} {
		if got := q.Dequeue(); got.ID != id {
			t.Errorf("expected %s, got %s", id, got.ID)
		}
	}
	if q.Dequeue() != nil || q.PeekFront() != nil {
		t.Error("expected empty queue")
	}
}

func TestRegularQueue_Remove(t *testing.T) {
	q := NewRegularQueue()
	q.Enqueue(&Patient{ID: "P001"})
	q.Enqueue(&Patient{ID: "P002"})
	q.Enqueue(&Patient{ID: "P003"})

	if !q.Remove("P002") {
		t.Fatal("expected P002 removed")
	}
	snap := q.Snapshot()
	if len(snap) != 2 || snap[0].ID != "P001" || snap[1].ID != "P003" {
		t.Errorf("unexpected queue contents after removal")
	}
}

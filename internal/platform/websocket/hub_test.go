package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestClient(topics ...string) *Client {
	c := NewClient(topics)
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return ev
	default:
		t.Fatal("expected an event")
		return Event{}
	}
}

func TestTopicFor(t *testing.T) {
	tests := map[string]string{
		"patient_registered":    TopicPatients,
		"medical_record_added":  TopicPatients,
		"undo_register":         TopicPatients,
		"patient_admitted":      TopicAdmissions,
		"patient_discharged":    TopicAdmissions,
		"room_added":            TopicResources,
		"appointment_scheduled": TopicAppointments,
	}
	for eventType, want := range tests {
		if got := TopicFor(eventType); got != want {
			t.Errorf("TopicFor(%q) = %q, want %q", eventType, got, want)
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newTestClient(TopicAdmissions)

	hub.Register(client)
	if hub.ClientCount() != 1 || hub.TopicCount(TopicAdmissions) != 1 {
		t.Fatalf("expected 1 client on admissions, got %d/%d", hub.ClientCount(), hub.TopicCount(TopicAdmissions))
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 || hub.TopicCount(TopicAdmissions) != 0 {
		t.Fatal("expected client removed")
	}
	if _, open := <-client.Send; open {
		t.Error("expected Send channel to be closed")
	}
	hub.Unregister(client)
}

func TestHub_PublishToTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	admissions := newTestClient(TopicAdmissions)
	resources := newTestClient(TopicResources)
	everything := newTestClient(TopicAll, TopicAdmissions)
	hub.Register(admissions)
	hub.Register(resources)
	hub.Register(everything)

	hub.Publish(context.Background(), Event{Type: "patient_admitted", PatientID: "P001", RoomID: "R001"})

	if ev := receive(t, admissions); ev.Topic != TopicAdmissions || ev.PatientID != "P001" {
		t.Errorf("unexpected event: %+v", ev)
	}
	receive(t, everything)
	if len(everything.Send) != 0 {
		t.Error("a client on both the topic and * must receive the event once")
	}
	if len(resources.Send) != 0 {
		t.Error("resources subscriber must not receive admission events")
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newTestClient()
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{TopicPatients, TopicAppointments}})
	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{TopicPatients}})
	if len(client.Topics) != 2 || hub.TopicCount(TopicPatients) != 1 {
		t.Fatalf("unexpected subscriptions: %v", client.Topics)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{TopicPatients}})
	if len(client.Topics) != 1 || client.Topics[0] != TopicAppointments {
		t.Errorf("unexpected topics after unsubscribe: %v", client.Topics)
	}
	if hub.TopicCount(TopicPatients) != 0 {
		t.Error("expected no patients subscribers")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "shout", Topics: []string{TopicResources}})
	if hub.TopicCount(TopicResources) != 0 {
		t.Error("unknown actions must be ignored")
	}
}

func TestHub_ProcessMessage_SingleTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newTestClient()
	hub.Register(client)

	var msg ClientMessage
	if err := json.Unmarshal([]byte(`{"action":"subscribe","topic":"resources"}`), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	hub.ProcessMessage(client, msg)
	if hub.TopicCount(TopicResources) != 1 || len(client.Topics) != 1 {
		t.Fatalf("expected a resources subscription, got %v", client.Topics)
	}

	json.Unmarshal([]byte(`{"action":"unsubscribe","topic":"resources"}`), &msg)
	hub.ProcessMessage(client, msg)
	if hub.TopicCount(TopicResources) != 0 || len(client.Topics) != 0 {
		t.Errorf("expected no subscriptions, got %v", client.Topics)
	}
}

func TestHub_SlowClientDropsEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := &Client{ID: "slow", Topics: []string{TopicAll}, Send: make(chan []byte, 1)}
	hub.Register(slow)

	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), Event{Type: "patient_registered"})
	}
	if hub.Dropped() != 2 {
		t.Errorf("expected 2 dropped events, got %d", hub.Dropped())
	}
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), nil)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ws/events", nil), httptest.NewRecorder())

	if err := h.HandleConnect(c); err == nil {
		t.Error("expected upgrade error for a non-websocket request")
	}
}

func TestHandler_CheckOrigin(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), []string{"http://board.local"})

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	req.Header.Set("Origin", "http://evil.example")
	if h.upgrader.CheckOrigin(req) {
		t.Error("expected foreign origin to be rejected")
	}
	req.Header.Set("Origin", "http://board.local")
	if !h.upgrader.CheckOrigin(req) {
		t.Error("expected allowed origin to pass")
	}
}

func TestHandler_StreamsEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	e := echo.New()
	NewHandler(hub, nil).RegisterRoutes(e.Group(""))

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events?topics=admissions"
	conn, resp, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.TopicCount(TopicAdmissions) != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.TopicCount(TopicAdmissions) != 1 {
		t.Fatal("expected the client to be subscribed to admissions")
	}

	hub.Publish(context.Background(), Event{Type: "patient_admitted", PatientID: "P007", Timestamp: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Type != "patient_admitted" || received.PatientID != "P007" {
		t.Errorf("unexpected event: %+v", received)
	}
}

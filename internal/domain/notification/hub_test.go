package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/agroci/agroci-api/internal/domain/credit"
	"github.com/agroci/agroci-api/internal/middleware"
	jwtpkg "github.com/agroci/agroci-api/internal/pkg/jwt"
)

func waitEvent(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("unmarshal ws event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ws event")
	}
	return Event{}
}

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", n, hub.GetConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubSendToUserLocal(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}
	other := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.Register(conn)
	hub.Register(other)
	waitForConnections(t, hub, 2)

	if err := hub.SendToUser(userID, &Event{Type: EventCreditsGranted}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if evt := waitEvent(t, conn.Send); evt.Type != EventCreditsGranted {
		t.Fatalf("unexpected event type %q", evt.Type)
	}
	select {
	case msg := <-other.Send:
		t.Fatalf("other user must not receive the event: %s", msg)
	default:
	}

	hub.Unregister(conn)
	waitForConnections(t, hub, 1)
}

func TestHubRelaysRemoteEventsOnly(t *testing.T) {
	hub := NewHubWithInstanceID(nil, "instance-a")
	go hub.Run()
	defer hub.Shutdown()

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}
	hub.Register(conn)
	waitForConnections(t, hub, 1)

	own, _ := json.Marshal(userEventMessage{UserID: userID.String(), Payload: json.RawMessage(`{"type":"own"}`), SenderInstanceID: "instance-a"})
	hub.handleUserEventPayload(string(own))
	select {
	case msg := <-conn.Send:
		t.Fatalf("own publications must be skipped, got %s", msg)
	default:
	}

	remote, _ := json.Marshal(userEventMessage{UserID: userID.String(), Payload: json.RawMessage(`{"type":"credits.granted"}`), SenderInstanceID: "instance-b"})
	hub.handleUserEventPayload(string(remote))
	if evt := waitEvent(t, conn.Send); evt.Type != EventCreditsGranted {
		t.Fatalf("unexpected event %q", evt.Type)
	}
}

func TestHubPublishesForOtherInstances(t *testing.T) {
	hub := NewHubWithInstanceID(nil, "instance-a")
	var published []byte
	hub.publishFn = func(_ context.Context, channel string, payload []byte) error {
		if channel != userEventsChannel {
			t.Errorf("unexpected channel %q", channel)
		}
		published = payload
		return nil
	}

	userID := uuid.New()
	if err := hub.SendToUser(userID, &Event{Type: EventCreditsGranted}); err != nil {
		t.Fatalf("send: %v", err)
	}

	var msg userEventMessage
	if err := json.Unmarshal(published, &msg); err != nil {
		t.Fatalf("unmarshal published: %v", err)
	}
	if msg.UserID != userID.String() || msg.SenderInstanceID != "instance-a" {
		t.Fatalf("unexpected published message: %+v", msg)
	}
}

type captureSender struct {
	userID uuid.UUID
	event  *Event
}

func (c *captureSender) SendToUser(userID uuid.UUID, event *Event) error {
	c.userID, c.event = userID, event
	return nil
}

func TestCreditNotifier(t *testing.T) {
	sender := &captureSender{}
	n := NewCreditNotifier(sender)

	n.CreditsGranted(context.Background(), credit.GrantedEvent{Reference: "ref_abc123", Credits: 25})
	if sender.event != nil {
		t.Fatalf("grant without user must not be pushed")
	}

	userID := uuid.New()
	n.CreditsGranted(context.Background(), credit.GrantedEvent{
		Reference: "ref_abc123",
		UserID:    &userID,
		Credits:   25,
		Balance:   30,
	})
	if sender.userID != userID || sender.event == nil {
		t.Fatalf("expected event for %s", userID)
	}
	data, ok := sender.event.Data.(CreditsGrantedData)
	if !ok || data.Balance != 30 || data.Credits != 25 || data.Reference != "ref_abc123" {
		t.Fatalf("unexpected payload: %+v", sender.event.Data)
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketEndToEnd(t *testing.T) {
	jwtService := jwtpkg.NewService("test-secret", time.Hour)
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	h := NewHandler(hub, nil)
	r := chi.NewRouter()
	r.Mount("/ws", h.Routes(middleware.QueryTokenAuth(jwtService)))
	ts := httptest.NewServer(r)
	defer ts.Close()

	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "buyer@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL)+"/ws", nil); err == nil {
		t.Fatalf("expected dial without token to fail")
	} else if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 without token, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/ws?token=%s", wsURL(ts.URL), token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForConnections(t, hub, 1)

	NewCreditNotifier(hub).CreditsGranted(context.Background(), credit.GrantedEvent{
		Reference: "ref_abc123",
		UserID:    &userID,
		Credits:   25,
		Balance:   25,
	})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var got struct {
		Type EventType          `json:"type"`
		Data CreditsGrantedData `json:"data"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != EventCreditsGranted || got.Data.Balance != 25 || got.Data.Reference != "ref_abc123" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

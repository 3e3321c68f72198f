package roombridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mkerring/talkshop/internal/config"
)

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("TALKSHOP_BRIDGE_PORT", "9001")
	t.Setenv("TALKSHOP_BRIDGE_HOST", "0.0.0.0")
	t.Setenv("TALKSHOP_BRIDGE_ENABLED", "false")
	cfg := &config.Config{}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.Enabled {
		t.Fatalf("expected enabled=false from env override")
	}
	if settings.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("expected default body limit, got %d", settings.MaxBodyBytes)
	}
}

func TestEventValidate(t *testing.T) {
	evt := Event{
		Version:   EventSchemaVersion,
		EventID:   "abc",
		Type:      TypeUtteranceFinal,
		SessionID: "session",
		AgentID:   "barista",
		Room:      "demo-room",
	}
	if err := evt.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
	evt.Version = 99
	if err := evt.Validate(); err == nil {
		t.Fatalf("expected version error")
	}
	evt.Version = EventSchemaVersion
	evt.Type = "karaoke"
	if err := evt.Validate(); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func testSettings(maxBody int64) Settings {
	return Settings{
		Enabled:      true,
		Host:         "127.0.0.1",
		Port:         0,
		MaxBodyBytes: maxBody,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}
}

func startServer(t *testing.T, settings Settings, opts ...Option) *Server {
	t.Helper()
	srv := NewServer(settings, opts...)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return srv
}

func postEvent(t *testing.T, base string, payload any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	resp, err := http.Post(base+"/rooms/events", "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post event: %v", err)
	}
	return resp
}

func TestServerAcceptsEvents(t *testing.T) {
	t.Parallel()
	fixed := time.Unix(1770000000, 0).UTC()
	recorded := make(chan Event, 1)
	srv := startServer(t, testSettings(1024),
		WithClock(func() time.Time { return fixed }),
		WithProcessor(EventProcessorFunc(func(e Event) error {
			recorded <- e
			return nil
		})))

	resp := postEvent(t, srv.BaseURL(), Event{
		Version:   EventSchemaVersion,
		EventID:   "evt-1",
		Type:      TypeUtteranceFinal,
		SessionID: "sess",
		AgentID:   "barista",
		Room:      "demo-room",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	select {
	case evt := <-recorded:
		if !evt.ServerTime.Equal(fixed) {
			t.Fatalf("expected server time %s, got %s", fixed, evt.ServerTime)
		}
	default:
		t.Fatalf("event not forwarded to processor")
	}
}

func TestServerHealthReportsPersonasAndSessions(t *testing.T) {
	t.Parallel()
	router := NewRouter()
	srv := startServer(t, testSettings(1024),
		WithProcessor(router),
		WithPersonas([]string{"barista", "grocer"}))
	base := srv.BaseURL()

	resp := postEvent(t, base, Event{
		Version:   EventSchemaVersion,
		EventID:   "evt-1",
		Type:      TypeParticipantJoined,
		SessionID: "sess-1",
		AgentID:   "barista",
		Room:      "demo-room",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != string(StatusReady) {
		t.Fatalf("health status = %s", health.Status)
	}
	if len(health.Personas) != 2 || health.Personas[0] != "barista" {
		t.Fatalf("health personas = %v", health.Personas)
	}
	if health.ActiveSessions != 1 {
		t.Fatalf("active sessions = %d, want 1", health.ActiveSessions)
	}
}

func TestServerRejectsUnroutableEvent(t *testing.T) {
	t.Parallel()
	srv := startServer(t, testSettings(1024), WithProcessor(NewRouter()))

	// No agent_id and no prior participant_joined for the session.
	resp := postEvent(t, srv.BaseURL(), Event{
		Version:   EventSchemaVersion,
		EventID:   "evt-1",
		Type:      TypeUtteranceFinal,
		SessionID: "sess-unknown",
		Room:      "demo-room",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestServerEnforcesPayloadLimit(t *testing.T) {
	t.Parallel()
	srv := startServer(t, testSettings(64))
	tooLarge := bytes.Repeat([]byte("a"), 512)
	resp := postEvent(t, srv.BaseURL(), map[string]any{
		"version":    EventSchemaVersion,
		"event_id":   "evt",
		"type":       TypeUtteranceFinal,
		"session_id": "sess",
		"agent_id":   "barista",
		"room":       "demo-room",
		"payload":    string(tooLarge),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestServerRejectsUnknownType(t *testing.T) {
	t.Parallel()
	srv := startServer(t, testSettings(1024))
	resp := postEvent(t, srv.BaseURL(), map[string]any{
		"version":    EventSchemaVersion,
		"event_id":   "evt",
		"type":       "karaoke",
		"session_id": "sess",
		"agent_id":   "barista",
		"room":       "demo-room",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServerDisabledRefusesStart(t *testing.T) {
	settings := testSettings(1024)
	settings.Enabled = false
	srv := NewServer(settings)
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected error starting a disabled server")
	}
}

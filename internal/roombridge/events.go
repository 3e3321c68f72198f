package roombridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// ProtocolVersion identifies the bridge contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// EventSchemaVersion is the currently supported inbound event version.
	EventSchemaVersion = 1
)

// Event types emitted by room clients.
const (
	TypeParticipantJoined = "participant_joined"
	TypeUtteranceFinal    = "utterance_final"
	TypeAgentReply        = "agent_reply"
	TypeToolInvoked       = "tool_invoked"
	TypeSessionEnd        = "session_end"
	TypeError             = "error"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Event captures a single notification emitted by a room client.
type Event struct {
	Version    int             `json:"version" validate:"eq=1"`
	EventID    string          `json:"event_id" validate:"required"`
	Sequence   int64           `json:"sequence"`
	Type       string          `json:"type" validate:"required,oneof=participant_joined utterance_final agent_reply tool_invoked session_end error"`
	ClientTime time.Time       `json:"client_time"`
	ServerTime time.Time       `json:"server_time"`
	SessionID  string          `json:"session_id" validate:"required"`
	AgentID    string          `json:"agent_id"`
	Room       string          `json:"room" validate:"required"`
	Payload    json.RawMessage `json:"payload"`
}

// Normalize applies defaults and canonical formatting before validation.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Version == 0 {
		e.Version = EventSchemaVersion
	}
	e.EventID = strings.TrimSpace(e.EventID)
	e.Type = strings.TrimSpace(strings.ToLower(e.Type))
	e.SessionID = strings.TrimSpace(e.SessionID)
	e.AgentID = strings.TrimSpace(strings.ToLower(e.AgentID))
	e.Room = strings.TrimSpace(e.Room)
}

// StampServerTime overwrites ServerTime with the supplied clock reading (UTC).
func (e *Event) StampServerTime(now time.Time) {
	if e == nil {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e.ServerTime = now.UTC()
}

// Validate enforces the inbound event schema.
func (e Event) Validate() error {
	if err := validate.Struct(e); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("roombridge: validate event: %w", err)
		}
		for _, fieldErr := range fieldErrs {
			switch fieldErr.Tag() {
			case "required":
				return fmt.Errorf("%s is required", jsonName(fieldErr.Field()))
			case "eq":
				return fmt.Errorf("version %d not supported", e.Version)
			case "oneof":
				return fmt.Errorf("unknown event type %q", e.Type)
			}
		}
		return err
	}
	return nil
}

// IsCritical reports whether the event must survive queue shedding.
func (e Event) IsCritical() bool {
	return e.Type == TypeSessionEnd || e.Type == TypeError
}

func jsonName(field string) string {
	switch field {
	case "EventID":
		return "event_id"
	case "SessionID":
		return "session_id"
	case "AgentID":
		return "agent_id"
	default:
		return strings.ToLower(field)
	}
}

// EventProcessor consumes validated events as they arrive.
type EventProcessor interface {
	HandleEvent(Event) error
}

// EventProcessorFunc adapts a function to the EventProcessor interface.
type EventProcessorFunc func(Event) error

// HandleEvent invokes the wrapped function.
func (f EventProcessorFunc) HandleEvent(event Event) error {
	return f(event)
}

// Logger is the minimal logging contract the bridge depends on.
type Logger interface {
	Printf(format string, args ...any)
}

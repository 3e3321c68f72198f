package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mkerring/talkshop/internal/config"
)

const metadataKey = "_talkshop"

// Store manages record IO rooted at the project workspace.
type Store struct {
	cfg *config.Config
	now func() time.Time
}

// Option customizes a Store during construction.
type Option func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.now = clock
	}
}

// New builds a store for a workspace.
func New(cfg *config.Config, opts ...Option) *Store {
	store := &Store{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Check inspects the record on disk and returns its status and metadata.
func (s *Store) Check(ref RecordRef) (CheckResult, error) {
	path := ref.Path(s.cfg)
	if path == "" {
		err := fmt.Errorf("store: %s path could not be resolved", ref.ID)
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	switch ref.Kind {
	case KindMarker:
		if info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("store: expected marker file got directory"))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}, nil
	case KindDirectory:
		if !info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("store: expected directory"))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}, nil
	case KindCollection:
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: readErr}, readErr
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return invalidResult(ref, path, fmt.Errorf("store: %s is not a JSON array: %w", ref.ID, err))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}, nil
	default:
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: readErr}, readErr
		}
		meta, metaErr := parseJSONMetadata(data)
		if metaErr != nil {
			return invalidResult(ref, path, metaErr)
		}
		if meta.RecordID != ref.ID {
			return invalidResult(ref, path, fmt.Errorf("store: metadata id %s does not match %s", meta.RecordID, ref.ID))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady, Metadata: &meta}, nil
	}
}

// WriteJSON persists a single JSON record with its metadata envelope.
func (s *Store) WriteJSON(ref RecordRef, body []byte, meta Metadata) error {
	if ref.Kind != KindJSON {
		return fmt.Errorf("store: %s is not a json record", ref.ID)
	}
	path := ref.Path(s.cfg)
	if path == "" {
		return fmt.Errorf("store: %s path could not be resolved", ref.ID)
	}
	if body == nil {
		body = []byte("{}")
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("store: invalid json body for %s: %w", ref.ID, err)
	}
	payload[metadataKey] = envelopeFromMetadata(prepared)
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode json for %s: %w", ref.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// LoadJSON reads a single JSON record, returning its payload and metadata.
// The metadata envelope is removed from the returned payload.
func (s *Store) LoadJSON(ref RecordRef, out any) (Metadata, error) {
	if ref.Kind != KindJSON {
		return Metadata{}, fmt.Errorf("store: %s is not a json record", ref.ID)
	}
	path := ref.Path(s.cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	meta, err := parseJSONMetadata(data)
	if err != nil {
		return Metadata{}, err
	}
	if out != nil {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return Metadata{}, fmt.Errorf("store: decode %s: %w", ref.ID, err)
		}
		delete(fields, metadataKey)
		stripped, err := json.Marshal(fields)
		if err != nil {
			return Metadata{}, fmt.Errorf("store: decode %s: %w", ref.ID, err)
		}
		if err := json.Unmarshal(stripped, out); err != nil {
			return Metadata{}, fmt.Errorf("store: decode %s: %w", ref.ID, err)
		}
	}
	return meta, nil
}

// LoadCollection reads a JSON array record into out. A missing file leaves out untouched.
func (s *Store) LoadCollection(ref RecordRef, out any) error {
	if ref.Kind != KindCollection {
		return fmt.Errorf("store: %s is not a collection", ref.ID)
	}
	path := ref.Path(s.cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", ref.ID, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: decode %s: %w", ref.ID, err)
	}
	return nil
}

// ReplaceCollection overwrites a JSON array record with the provided items.
func (s *Store) ReplaceCollection(ref RecordRef, items any) error {
	if ref.Kind != KindCollection {
		return fmt.Errorf("store: %s is not a collection", ref.ID)
	}
	path := ref.Path(s.cfg)
	if path == "" {
		return fmt.Errorf("store: %s path could not be resolved", ref.ID)
	}
	encoded, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", ref.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// AppendRecord appends one item to a JSON array record, creating it when absent.
func (s *Store) AppendRecord(ref RecordRef, item any) error {
	var existing []json.RawMessage
	if err := s.LoadCollection(ref, &existing); err != nil {
		return err
	}
	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("store: encode item for %s: %w", ref.ID, err)
	}
	existing = append(existing, encoded)
	return s.ReplaceCollection(ref, existing)
}

// EnsureDir creates a directory record when it does not yet exist.
func (s *Store) EnsureDir(ref RecordRef) error {
	if ref.Kind != KindDirectory {
		return fmt.Errorf("store: %s is not a directory record", ref.ID)
	}
	path := ref.Path(s.cfg)
	if path == "" {
		return fmt.Errorf("store: %s path could not be resolved", ref.ID)
	}
	return os.MkdirAll(path, 0o755)
}

// Config exposes the workspace configuration backing the store.
func (s *Store) Config() *config.Config {
	return s.cfg
}

func invalidResult(ref RecordRef, path string, err error) (CheckResult, error) {
	return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}, err
}

type metaEnvelope struct {
	Record  string            `json:"record"`
	Agent   string            `json:"agent"`
	Version string            `json:"version"`
	Session string            `json:"session,omitempty"`
	Created string            `json:"created"`
	Notes   map[string]string `json:"notes,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func envelopeFromMetadata(meta Metadata) metaEnvelope {
	return metaEnvelope{
		Record:  meta.RecordID,
		Agent:   meta.AgentID,
		Version: meta.Version,
		Session: meta.SessionID,
		Created: meta.CreatedAt.UTC().Format(timeLayout),
		Notes:   cloneNotes(meta.Notes),
	}
}

func parseJSONMetadata(data []byte) (Metadata, error) {
	var payload struct {
		Meta *metaEnvelope `json:"_talkshop"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Metadata{}, fmt.Errorf("store: parse json metadata: %w", err)
	}
	if payload.Meta == nil {
		return Metadata{}, fmt.Errorf("store: missing %s metadata", metadataKey)
	}
	env := payload.Meta
	if env.Record == "" || env.Agent == "" || env.Version == "" {
		return Metadata{}, fmt.Errorf("store: incomplete metadata")
	}
	created, err := time.Parse(timeLayout, env.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("store: parse created timestamp: %w", err)
	}
	return Metadata{
		RecordID:  env.Record,
		AgentID:   env.Agent,
		Version:   env.Version,
		SessionID: env.Session,
		CreatedAt: created.UTC(),
		Notes:     cloneNotes(env.Notes),
	}, nil
}

func cloneNotes(notes map[string]string) map[string]string {
	if len(notes) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(notes))
	for k, v := range notes {
		cloned[k] = v
	}
	return cloned
}

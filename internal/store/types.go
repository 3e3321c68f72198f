// Package store defines the filesystem-level records that personas persist.
// Each record has a stable identifier, kind, and a resolver that maps to the
// actual path within the project's .talkshop tree.
package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mkerring/talkshop/internal/config"
)

// Kind captures the storage shape and serialization format for a record.
type Kind string

const (
	// KindJSON represents a single JSON document enriched with a _talkshop metadata block.
	KindJSON Kind = "json"
	// KindCollection represents a JSON array of records appended to over time.
	KindCollection Kind = "collection"
	// KindMarker represents an empty file used as a marker/flag.
	KindMarker Kind = "marker"
	// KindDirectory represents a directory that must exist.
	KindDirectory Kind = "directory"
)

// PathResolver returns the fully-qualified path to a record for the current workspace.
type PathResolver func(*config.Config) string

// RecordRef declares a stable identifier and metadata for a persisted record.
type RecordRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	path        PathResolver
}

// Path resolves the record path for the provided configuration.
func (r RecordRef) Path(cfg *config.Config) string {
	if cfg == nil || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(cfg))
}

// Validate ensures the reference is well-formed.
func (r RecordRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("store: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("store: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("store: path resolver missing for %s", r.ID)
	}
	return nil
}

// Metadata captures provenance stored inside record metadata blocks.
type Metadata struct {
	RecordID  string
	AgentID   string
	Version   string
	SessionID string
	CreatedAt time.Time
	Notes     map[string]string
}

// WithDefaults ensures metadata carries the record ID and timestamps.
func (m Metadata) WithDefaults(ref RecordRef, now time.Time) Metadata {
	clone := m
	if clone.RecordID == "" {
		clone.RecordID = ref.ID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata matches the record contract.
func (m Metadata) ValidateFor(ref RecordRef) error {
	if m.RecordID != ref.ID {
		return fmt.Errorf("store: metadata id %s does not match ref %s", m.RecordID, ref.ID)
	}
	if m.AgentID == "" {
		return fmt.Errorf("store: agent id is required for %s", ref.ID)
	}
	if m.Version == "" {
		return fmt.Errorf("store: version is required for %s", ref.ID)
	}
	return nil
}

// State captures the readiness of a record on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref      RecordRef
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// newJSONRef creates a JSON record reference helper.
func newJSONRef(id, name, desc string, resolver PathResolver) RecordRef {
	return RecordRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindJSON,
		path:        resolver,
	}
}

// newCollectionRef creates a JSON array record reference helper.
func newCollectionRef(id, name, desc string, resolver PathResolver) RecordRef {
	return RecordRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindCollection,
		path:        resolver,
	}
}

// newDirectoryRef creates a directory reference helper.
func newDirectoryRef(id, name, desc string, resolver PathResolver) RecordRef {
	return RecordRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDirectory,
		path:        resolver,
	}
}

// Canonical record references for the persona runtime.
var (
	OrdersDir = newDirectoryRef("orders-dir", "Coffee Orders", "Directory holding one JSON file per saved coffee order", func(cfg *config.Config) string {
		return cfg.OrdersDir()
	})
	CatalogJSON = newJSONRef("grocery-catalog", "Grocery Catalog", "Seed catalog the grocer persona sells from", func(cfg *config.Config) string {
		return filepath.Join(cfg.DataDir(), "catalog.json")
	})
	GroceryOrders = newCollectionRef("grocery-orders", "Grocery Order History", "Past grocery orders in placement order", func(cfg *config.Config) string {
		return filepath.Join(cfg.StateDir(), "grocery_orders.json")
	})
	FraudCases = newCollectionRef("fraud-cases", "Fraud Case DB", "Flagged transactions awaiting review", func(cfg *config.Config) string {
		return filepath.Join(cfg.DataDir(), "fraud_cases.json")
	})
	WellnessLog = newCollectionRef("wellness-log", "Wellness Log", "Daily check-in entries, one per date", func(cfg *config.Config) string {
		return filepath.Join(cfg.StateDir(), "wellness_log.json")
	})
	MasteryJSON = newJSONRef("tutor-mastery", "Tutor Mastery Model", "Per-topic attempt counts and running accuracy", func(cfg *config.Config) string {
		return filepath.Join(cfg.StateDir(), "mastery.json")
	})
	ProgressJSON = newJSONRef("challenge-progress", "Challenge Progress", "Per-day step completion for the challenge program", func(cfg *config.Config) string {
		return filepath.Join(cfg.StateDir(), "progress.json")
	})
)

// OrderFile builds a dynamic reference for a single saved coffee order,
// named order_<timestamp>_<name>.json under the orders directory.
func OrderFile(ts time.Time, customer string) RecordRef {
	stamp := ts.Format("20060102_150405")
	file := fmt.Sprintf("order_%s_%s.json", stamp, customer)
	return newJSONRef("coffee-order", "Coffee Order", "A single confirmed coffee order", func(cfg *config.Config) string {
		return filepath.Join(cfg.OrdersDir(), file)
	})
}

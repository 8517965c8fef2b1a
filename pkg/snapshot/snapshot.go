// Package snapshot captures the install ledger at a point in time so that a
// batch of installs or switches can be compared and rolled back.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/wengchengjian/env/pkg/ledger"
)

const (
	bucketSnapshots = "snapshots"
	bucketMeta      = "snapshot_meta"
	keyLatest       = "latest_id"

	// MaxSnapshots is the default number of snapshots kept by Prune.
	MaxSnapshots = 50

	// MaxAutoSnapshots is the number of automatic snapshots kept by Prune.
	MaxAutoSnapshots = 20
)

// ErrNotFound is returned when a snapshot id is unknown.
var ErrNotFound = errors.New("snapshot not found")

// Trigger represents what caused the snapshot to be created.
type Trigger string

const (
	TriggerManual   Trigger = "manual"   // User explicitly created snapshot
	TriggerInstall  Trigger = "install"  // Before a batch install
	TriggerSwitch   Trigger = "switch"   // Before switching a current version
	TriggerFlush    Trigger = "flush"    // Before rescanning the install root
	TriggerRollback Trigger = "rollback" // Before restoring another snapshot
)

// EnvState is one environment as recorded in the ledger.
type EnvState struct {
	Name      string   `json:"name"`
	Current   string   `json:"current,omitempty"`
	Installed []string `json:"installed"`
}

// Snapshot is the ledger state at a point in time.
type Snapshot struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Description string     `json:"description,omitempty"`
	Trigger     Trigger    `json:"trigger"`
	InstallPath string     `json:"install_path"`
	Envs        []EnvState `json:"environments"`

	// Targets names the environments the triggering operation touched.
	Targets []string `json:"targets,omitempty"`
}

// NewSnapshot captures doc.
func NewSnapshot(trigger Trigger, description string, doc ledger.Document) *Snapshot {
	now := time.Now()
	snap := &Snapshot{
		ID:          now.UTC().Format("20060102-150405.000") + "-" + uuid.NewString()[:8],
		Timestamp:   now,
		Description: description,
		Trigger:     trigger,
		InstallPath: doc.InstallPath,
		Envs:        []EnvState{},
	}

	for _, e := range doc.Installed {
		snap.Envs = append(snap.Envs, EnvState{
			Name:      e.Name,
			Current:   e.CurrentVersion,
			Installed: append([]string(nil), e.InstalledVersions...),
		})
	}
	sort.Slice(snap.Envs, func(i, j int) bool {
		return strings.ToLower(snap.Envs[i].Name) < strings.ToLower(snap.Envs[j].Name)
	})

	return snap
}

// FormatTime returns a human-readable timestamp.
func (s *Snapshot) FormatTime() string {
	return s.Timestamp.Format("2006-01-02 15:04:05")
}

// VersionCount returns the number of installed versions across every
// environment.
func (s *Snapshot) VersionCount() int {
	n := 0
	for _, e := range s.Envs {
		n += len(e.Installed)
	}
	return n
}

// Env returns the state of name, or nil.
func (s *Snapshot) Env(name string) *EnvState {
	for i := range s.Envs {
		if strings.EqualFold(s.Envs[i].Name, name) {
			return &s.Envs[i]
		}
	}
	return nil
}

// Summary returns a brief description of the snapshot.
func (s *Snapshot) Summary() string {
	desc := s.Description
	if desc == "" {
		desc = string(s.Trigger)
	}
	return fmt.Sprintf("%s - %s (%d environments, %d versions)", s.ID, desc, len(s.Envs), s.VersionCount())
}

// Store manages snapshot storage using BoltDB.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens or creates the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketMeta)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save saves a snapshot to the database.
func (s *Store) Save(snap *Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return fmt.Errorf("snapshots bucket not found")
		}

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		key := []byte(snap.ID)
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		if meta := tx.Bucket([]byte(bucketMeta)); meta != nil {
			_ = meta.Put([]byte(keyLatest), key) //nolint:errcheck
		}

		return nil
	})
}

// Get retrieves a snapshot by ID. A unique ID prefix is accepted.
func (s *Store) Get(id string) (*Snapshot, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return ErrNotFound
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			var matches int
			c := bucket.Cursor()
			for k, v := c.Seek([]byte(id)); k != nil && strings.HasPrefix(string(k), id); k, v = c.Next() {
				data = v
				matches++
			}
			if matches != 1 {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
		}

		var snapshot Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		snap = &snapshot
		return nil
	})

	return snap, err
}

// Latest returns the most recent snapshot, or nil when there is none.
func (s *Store) Latest() (*Snapshot, error) {
	list, err := s.List(1, "")
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// List returns snapshots newest first, optionally limited and filtered by
// trigger.
func (s *Store) List(limit int, trigger Trigger) ([]Snapshot, error) {
	var snapshots []Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && (limit <= 0 || len(snapshots) < limit); k, v = cursor.Prev() {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				continue // Skip malformed entries
			}

			if trigger != "" && snap.Trigger != trigger {
				continue
			}

			snapshots = append(snapshots, snap)
		}

		return nil
	})

	return snapshots, err
}

// Delete removes a snapshot by ID.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return ErrNotFound
		}
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// Count returns the total number of snapshots.
func (s *Store) Count() (int, error) {
	var count int

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return nil
		}
		count = bucket.Stats().KeyN
		return nil
	})

	return count, err
}

// Prune keeps the keepCount most recent snapshots, and at most
// keepAutoCount of those not taken manually.
func (s *Store) Prune(keepCount, keepAutoCount int) (int, error) {
	var deleted int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSnapshots))
		if bucket == nil {
			return nil
		}

		var all, auto []string
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				continue
			}
			all = append(all, snap.ID)
			if snap.Trigger != TriggerManual {
				auto = append(auto, snap.ID)
			}
		}

		toDelete := make(map[string]bool)
		if len(all) > keepCount {
			for _, id := range all[keepCount:] {
				toDelete[id] = true
			}
		}
		if len(auto) > keepAutoCount {
			for _, id := range auto[keepAutoCount:] {
				toDelete[id] = true
			}
		}

		for id := range toDelete {
			if err := bucket.Delete([]byte(id)); err != nil {
				return err
			}
			deleted++
		}

		return nil
	})

	return deleted, err
}

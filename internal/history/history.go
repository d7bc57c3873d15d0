// Package history implements §13: a durable record of past scheduling
// runs. It supplements the spec's lock-file persistence with a queryable
// log of every invocation's full result, for later inspection or
// diffing across runs. A nil *Store disables it entirely — nothing in
// the scheduling core depends on history being recorded.
package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/rcspd/pkg/task"
)

var bucketRuns = []byte("runs")

// Run is one recorded invocation of the scheduling service.
type Run struct {
	ID        string               `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
	Algorithm string               `json:"algorithm"`
	TaskCount int                  `json:"task_count"`
	Result    task.SchedulingResult `json:"result"`
}

// Store is a bbolt-backed append-mostly log of Runs, keyed by a generated
// UUID so concurrent writers never collide.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "rcspd-history.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one scheduling run and returns its generated id.
func (s *Store) Record(algorithm string, taskCount int, result *task.SchedulingResult) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Algorithm: algorithm,
		TaskCount: taskCount,
		Result:    *result,
	}

	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.Put([]byte(run.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store run %s: %w", run.ID, err)
	}

	return run.ID, nil
}

// Get retrieves one run by id.
func (s *Store) Get(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns every recorded run, in the bucket's key (id) order.
func (s *Store) List() ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(_, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
			return nil
		})
	})
	return runs, err
}

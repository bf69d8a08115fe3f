package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lamim/promptlab/pkg/models"
)

// ErrUnsupportedSchema is returned when the stored collection was written by
// a newer version. Nothing is written back over it.
var ErrUnsupportedSchema = errors.New("unsupported run schema version")

// Repository keeps every run in one collection stored under a single key.
// Each mutation reads the collection, changes it and writes it back whole.
// The mutex serializes this within one process only; two processes sharing
// a store can lose each other's updates.
type Repository struct {
	kv     KV
	key    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRepository creates a repository over kv
func NewRepository(kv KV, key string, logger *slog.Logger) (*Repository, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &Repository{
		kv:     kv,
		key:    key,
		logger: logger.With("component", "store"),
	}, nil
}

// Insert adds run at the front of the collection
func (r *Repository) Insert(run models.ExperimentRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs, err := r.load()
	if err != nil {
		return err
	}
	runs = append([]models.ExperimentRun{run}, runs...)
	return r.save(runs)
}

// List returns all runs, newest first
func (r *Repository) List() ([]models.ExperimentRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Get finds a run by ID
func (r *Repository) Get(id string) (models.ExperimentRun, bool, error) {
	runs, err := r.List()
	if err != nil {
		return models.ExperimentRun{}, false, err
	}
	for _, run := range runs {
		if run.ID == id {
			return run, true, nil
		}
	}
	return models.ExperimentRun{}, false, nil
}

// Delete removes the run with id. It reports whether a run was removed;
// deleting a missing ID is not an error and writes nothing.
func (r *Repository) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs, err := r.load()
	if err != nil {
		return false, err
	}

	kept := runs[:0]
	removed := false
	for _, run := range runs {
		if run.ID == id {
			removed = true
			continue
		}
		kept = append(kept, run)
	}
	if !removed {
		return false, nil
	}
	return true, r.save(kept)
}

// Close closes the underlying store
func (r *Repository) Close() error {
	return r.kv.Close()
}

// load reads the collection. A legacy bare array is accepted and a malformed
// blob is logged and treated as empty. A newer schema fails with
// ErrUnsupportedSchema.
func (r *Repository) load() ([]models.ExperimentRun, error) {
	data, ok, err := r.kv.Get(r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	if !ok {
		return []models.ExperimentRun{}, nil
	}

	runs, version, err := decodeCollection(data)
	if errors.Is(err, ErrUnsupportedSchema) {
		return nil, err
	}
	if err != nil {
		r.logger.Error("Stored runs are malformed, treating as empty",
			"key", r.key,
			"bytes", len(data),
			"error", err)
		return []models.ExperimentRun{}, nil
	}
	if version < models.CurrentSchemaVersion {
		r.logger.Debug("Read legacy run collection", "schema_version", version, "runs", len(runs))
	}
	return runs, nil
}

func (r *Repository) save(runs []models.ExperimentRun) error {
	data, err := json.Marshal(models.RunCollection{
		SchemaVersion: models.CurrentSchemaVersion,
		Runs:          runs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}
	if err := r.kv.Put(r.key, data); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	return nil
}

// decodeCollection accepts the versioned envelope or a bare array (version 0)
func decodeCollection(data []byte) ([]models.ExperimentRun, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.ExperimentRun{}, models.CurrentSchemaVersion, nil
	}

	if trimmed[0] == '[' {
		var runs []models.ExperimentRun
		if err := json.Unmarshal(trimmed, &runs); err != nil {
			return nil, 0, err
		}
		if runs == nil {
			runs = []models.ExperimentRun{}
		}
		return runs, 0, nil
	}

	var coll models.RunCollection
	if err := json.Unmarshal(trimmed, &coll); err != nil {
		return nil, 0, err
	}
	if coll.SchemaVersion > models.CurrentSchemaVersion {
		return nil, 0, fmt.Errorf("%w: %d (newest known %d)", ErrUnsupportedSchema, coll.SchemaVersion, models.CurrentSchemaVersion)
	}
	if coll.Runs == nil {
		coll.Runs = []models.ExperimentRun{}
	}
	return coll.Runs, coll.SchemaVersion, nil
}

// Package store persists experiment runs as a single serialized collection
// in a pluggable key-value backend.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lamim/promptlab/internal/config"
)

// ErrInvalidKey is returned for keys that are empty or could escape the data directory
var ErrInvalidKey = errors.New("invalid storage key")

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// KV is a minimal blob store. Get reports whether the key exists.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Close() error
}

// ValidateKey rejects keys that are empty, contain path separators or
// traversal sequences, or use characters outside [A-Za-z0-9_.-].
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidKey, key)
	}
	if filepath.IsAbs(key) || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidKey, key)
	}
	if !keyRegex.MatchString(key) {
		return fmt.Errorf("%w: %q has unsupported characters", ErrInvalidKey, key)
	}
	return nil
}

// Open creates the backend selected by cfg.Driver
func Open(cfg config.StorageConfig, logger *slog.Logger) (KV, error) {
	switch cfg.Driver {
	case config.StorageFile, "":
		return NewFileKV(cfg.Dir)
	case config.StorageSQLite:
		return NewSQLiteKV(filepath.Join(cfg.Dir, SQLiteFilename), logger)
	case config.StorageMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

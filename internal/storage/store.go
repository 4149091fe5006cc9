package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the persisted collections. They match the localStorage keys of the
// original web client so exported data can be loaded unchanged.
const (
	KeySession = "gym_user"
	KeyPlans   = "gym_plans"
	KeyAlarms  = "gym_alarms"
	KeyOTP     = "gym_otp"
)

// ErrCorrupt is returned by LoadJSON when a stored value does not decode into
// the expected shape.
var ErrCorrupt = errors.New("stored value is corrupt")

// Store is a durable key to JSON-blob store. A missing key is not an error:
// Read reports it with ok=false. Writes are last-write-wins; concurrent
// writers to the same key are not coordinated.
type Store interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a Store backend.
type Options struct {
	Driver string // "sqlite" (default), "postgres" or "memory"
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open creates the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return OpenSQLite(opts.Path)
	case "postgres":
		if err := RunMigrations(opts.DSN); err != nil {
			return nil, err
		}
		return NewPostgres(ctx, opts.DSN)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// LoadJSON decodes the value under key into dst. found is false when the key
// is absent. A value that fails to decode yields an error wrapping ErrCorrupt.
func LoadJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	raw, ok, err := s.Read(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("decoding %s: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

// SaveJSON encodes v and replaces the value under key in a single write.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Write(ctx, key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

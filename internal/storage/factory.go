package storage

import (
	"fmt"
	"strings"
)

// DefaultSQLitePath is used when the sqlite backend is selected without a
// database path.
const DefaultSQLitePath = "genom.db"

// NewStore returns an uninitialized store for kind: "memory" (the default)
// or "sqlite".
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if sqlitePath == "" {
			sqlitePath = DefaultSQLitePath
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

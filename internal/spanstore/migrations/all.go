package migrations

import (
	"gofr.dev/pkg/gofr/migration"
)

// All returns the span store migrations keyed by version.
func All() map[int64]migration.Migrate {
	return map[int64]migration.Migrate{
		1708322067: createSpanTables(),
		1708322068: createIndices(),
	}
}

package migrations

import (
	"gofr.dev/pkg/gofr/migration"
)

const createIndexParentID = `create index idx_spans_parent_id
on spans (parent_id);`

const createIndexSpanTraceID = `create index idx_spans_trace_id_timestamp
on spans (trace_id, timestamp);`

func createIndices() migration.Migrate {
	return migration.Migrate{
		UP: func(d migration.Datasource) error {
			if _, err := d.SQL.Exec(createIndexParentID); err != nil {
				return err
			}

			_, err := d.SQL.Exec(createIndexSpanTraceID)

			return err
		},
	}
}

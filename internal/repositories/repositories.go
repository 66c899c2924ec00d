// package repositories stores reconciliation plans in sqlite
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/dzx/internal/shared"
)

// sequenceTables maps each table with short numeric references to its single-row counter table.
var sequenceTables = map[string]string{
	"plans": "plans_sequence",
}

// queryRower is satisfied by both [sql.DB] and [sql.Tx].
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence advances the counter of table and returns the new value.
//
// Called with a [sql.Tx], the increment rolls back with the transaction. Plan sequence numbers are what
// `dzx plans show 15` resolves.
func NextSequence(q queryRower, table string) (int, error) {
	counter, ok := sequenceTables[table]
	if !ok {
		return 0, fmt.Errorf("%w: table %q has no sequence", shared.ErrInvalidArgument, table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", counter)
	if err := q.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to advance %s: %w", counter, err)
	}
	return sequence, nil
}

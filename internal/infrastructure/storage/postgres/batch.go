package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter provides bulk loading using the COPY protocol.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice performs bulk insert from a slice of rows.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// CopyStructs bulk inserts items into table, mapping fields by their "db" tags.
func CopyStructs[T any](ctx context.Context, b *BatchInserter, table string, items []T) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(items))
	for i := range items {
		rows[i] = StructValues(&items[i])
	}
	n, err := b.CopyFromSlice(ctx, table, ExtractDBColumns[T](), rows)
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// ExecuteBatch executes multiple statements in a single round-trip.
func (b *BatchInserter) ExecuteBatch(ctx context.Context, statements ...string) error {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("ExecuteBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, sql := range statements {
		batch.Queue(sql)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, sql := range statements {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %q: %w", sql, err)
		}
	}

	return nil
}

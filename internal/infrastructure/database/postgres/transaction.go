package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Tentatives d'une transaction SERIALIZABLE avant abandon
const (
	serializableAttempts = 3
	serializableBackoff  = 20 * time.Millisecond
)

// Transaction vue restreinte de pgx.Tx exposée aux repositories
type Transaction struct {
	tx pgx.Tx
}

type TxFunc func(tx *Transaction) error

type TransactionManager struct {
	client *Client
	logger *zap.Logger
}

func NewTransactionManager(client *Client, logger *zap.Logger) *TransactionManager {
	return &TransactionManager{
		client: client,
		logger: logger.Named("postgres-tx"),
	}
}

// WithTransaction niveau d'isolation par défaut du serveur
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn TxFunc) error {
	return tm.run(ctx, pgx.TxOptions{}, fn)
}

// WithSerializable rejoue fn tant que PostgreSQL signale un conflit de
// sérialisation ; fn doit donc être rejouable (lectures refaites à chaque essai)
func (tm *TransactionManager) WithSerializable(ctx context.Context, fn TxFunc) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	var err error
	for attempt := 1; attempt <= serializableAttempts; attempt++ {
		err = tm.run(ctx, opts, fn)
		if !IsSerializationFailure(err) {
			return err
		}

		tm.logger.Debug("conflit de sérialisation, nouvel essai", zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * serializableBackoff):
		}
	}
	return fmt.Errorf("transaction abandonnée après %d conflits: %w", serializableAttempts, err)
}

func (tm *TransactionManager) run(ctx context.Context, opts pgx.TxOptions, fn TxFunc) (err error) {
	if tm.client.pool == nil {
		return fmt.Errorf("database pool is nil")
	}

	pgxTx, err := tm.client.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Rollback si fn échoue ou panique ; sans effet après un commit réussi
	defer func() {
		rbErr := pgxTx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			tm.logger.Warn("rollback échoué", zap.Error(rbErr))
		}
	}()

	if err := fn(&Transaction{tx: pgxTx}); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Transaction) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *Transaction) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *Transaction) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods run against a Querier so the same code path serves
// both standalone reads and reads inside a coordinated transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// uowKey is the context key under which the active transaction travels.
type uowKey struct{}

func withUow(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, uowKey{}, tx)
}

func uowFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(uowKey{}).(*sql.Tx)
	return tx, ok
}

// querier resolves the handle a store should use: the transaction bound
// to the context when one exists, otherwise the plain pool.
func querier(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := uowFrom(ctx); ok {
		return tx
	}
	return db
}

// Coordinator wraps compound operations in a single atomic unit.  It is
// the only component that commits multi-table writes: services call
// Execute and perform all reads and writes through stores that pick the
// transaction up from the context.  Nested Execute calls join the
// transaction already in flight instead of opening a second one.
//
// InnoDB aborts one participant of a lock conflict with a deadlock
// (1213) or lock-wait-timeout (1205) error.  Those failures are
// transient, so the whole unit, validation included, is retried a
// bounded number of times with backoff before ErrConflict surfaces to
// the caller.  No other component may catch a serialization failure.
type Coordinator struct {
	db       *sql.DB
	attempts int
	backoff  time.Duration
}

// NewCoordinator returns a Coordinator over the given pool with the
// default retry budget of three attempts.
func NewCoordinator(db *sql.DB) *Coordinator {
	return &Coordinator{db: db, attempts: 3, backoff: 25 * time.Millisecond}
}

// Execute runs fn within a transaction.  When the context already
// carries a transaction, fn joins it and commit/rollback stay with the
// outermost caller.  Otherwise a new transaction is opened, fn runs
// with it bound to the context, and the result decides commit versus
// rollback.  Serialization failures restart fn from scratch.
func (c *Coordinator) Execute(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := uowFrom(ctx); ok {
		return fn(ctx)
	}
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := c.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !serializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transaction retry budget exhausted after %d attempts: %v: %w",
		c.attempts, lastErr, ErrConflict)
}

func (c *Coordinator) runOnce(ctx context.Context, fn func(context.Context) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(withUow(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// serializationFailure reports whether err is a transient isolation
// conflict worth retrying: MySQL 1213 (deadlock victim) or 1205 (lock
// wait timeout exceeded).
func serializationFailure(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}

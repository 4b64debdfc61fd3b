package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxStarter opens transactions; *pgxpool.Pool satisfies it.
type TxStarter interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// ErrNoStarter is returned when a repository was built without a pool.
var ErrNoStarter = errors.New("platform/db: no transaction starter")

// InTx runs fn in a read-committed transaction. Any error or panic from fn
// rolls the transaction back.
func InTx(ctx context.Context, starter TxStarter, fn func(q DBTX) error) (err error) {
	if starter == nil {
		return ErrNoStarter
	}
	tx, err := starter.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("platform/db: begin: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// rollback uses a fresh context so a cancelled request still releases the conn
		_ = tx.Rollback(context.WithoutCancel(ctx))
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit: %w", err)
	}
	committed = true
	return nil
}

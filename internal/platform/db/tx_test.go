package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeTx) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeStarter struct {
	tx       *fakeTx
	opts     pgx.TxOptions
	beginErr error
}

func (s *fakeStarter) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	s.opts = opts
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

func TestInTxCommits(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{}}
	err := InTx(context.Background(), starter, func(q DBTX) error {
		_, err := q.Exec(context.Background(), "INSERT INTO units")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, pgx.ReadCommitted, starter.opts.IsoLevel)
	require.True(t, starter.tx.committed)
	require.False(t, starter.tx.rolledBack)
	require.Equal(t, []string{"INSERT INTO units"}, starter.tx.execs)
}

func TestInTxRollsBackOnError(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{}}
	boom := errors.New("boom")
	err := InTx(context.Background(), starter, func(DBTX) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, starter.tx.committed)
	require.True(t, starter.tx.rolledBack)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{}}
	require.PanicsWithValue(t, "kaboom", func() {
		_ = InTx(context.Background(), starter, func(DBTX) error { panic("kaboom") })
	})
	require.True(t, starter.tx.rolledBack)
}

func TestInTxCommitAndBeginFailures(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{commitErr: errors.New("serialization")}}
	err := InTx(context.Background(), starter, func(DBTX) error { return nil })
	require.ErrorContains(t, err, "platform/db: commit")
	require.True(t, starter.tx.rolledBack)

	err = InTx(context.Background(), &fakeStarter{beginErr: errors.New("no conn")}, func(DBTX) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorContains(t, err, "platform/db: begin")

	require.ErrorIs(t, InTx(context.Background(), nil, func(DBTX) error { return nil }), ErrNoStarter)
}

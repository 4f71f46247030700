package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct{}

func (fakeQuerier) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (fakeQuerier) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (fakeQuerier) Exec(ctx context.Context, query string, args ...interface{}) error { return nil }
func (fakeQuerier) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return 0, nil
}
func (fakeQuerier) NamedExec(ctx context.Context, query string, arg interface{}) error { return nil }
func (fakeQuerier) QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}

type fakeTx struct {
	fakeQuerier
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit() error   { t.commits++; return nil }
func (t *fakeTx) Rollback() error { t.rollbacks++; return nil }

type fakeDB struct {
	fakeQuerier
	tx       *fakeTx
	beginErr error
	begins   int
}

func (d *fakeDB) BeginTx(ctx context.Context) (Transaction, error) {
	d.begins++
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func TestScopedCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}

	var called bool
	err := Scoped(context.Background(), db, func(ctx context.Context, q Querier) error {
		called = true
		_, isTx := q.(Transaction)
		assert.True(t, isTx, "callback must receive the transaction")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
}

func TestScopedRollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}
	boom := errors.New("boom")

	err := Scoped(context.Background(), db, func(ctx context.Context, q Querier) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestScopedReusesOuterTransaction(t *testing.T) {
	outer := &fakeTx{}

	err := Scoped(context.Background(), outer, func(ctx context.Context, q Querier) error {
		assert.Same(t, outer, q)
		return nil
	})

	require.NoError(t, err)
	// Вложенный вызов не владеет транзакцией
	assert.Equal(t, 0, outer.commits)
	assert.Equal(t, 0, outer.rollbacks)
}

func TestScopedNestedErrorLeavesOuterOpen(t *testing.T) {
	outer := &fakeTx{}
	boom := errors.New("inner failed")

	err := Scoped(context.Background(), outer, func(ctx context.Context, q Querier) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, outer.rollbacks, "outer owner decides the fate of the transaction")
}

func TestScopedRollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}

	assert.PanicsWithValue(t, "unexpected", func() {
		_ = Scoped(context.Background(), db, func(ctx context.Context, q Querier) error {
			panic("unexpected")
		})
	})

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestScopedBeginFailure(t *testing.T) {
	beginErr := errors.New("pool exhausted")
	db := &fakeDB{beginErr: beginErr}

	err := Scoped(context.Background(), db, func(ctx context.Context, q Querier) error {
		t.Fatal("callback must not run when begin fails")
		return nil
	})

	require.ErrorIs(t, err, beginErr)
}

func TestScopedRejectsPlainQuerier(t *testing.T) {
	err := Scoped(context.Background(), fakeQuerier{}, func(ctx context.Context, q Querier) error {
		return nil
	})
	require.Error(t, err)
}

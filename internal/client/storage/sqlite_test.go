package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), "file:storagetest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM state`) })
	return db
}

func TestSQLiteRepository_SetGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.Set(ctx, "token", []byte("t1")))

	got, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("t1"), got)

	// upsert
	require.NoError(t, repo.Set(ctx, "token", []byte("t2")))
	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("t2"), got)
}

func TestSQLiteRepository_MissingKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	got, err := repo.Get(ctx, "absent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSQLiteRepository_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	require.NoError(t, repo.Set(ctx, "user", []byte(`{}`)))
	require.NoError(t, repo.Set(ctx, "token", []byte("t1")))

	require.NoError(t, repo.Delete(ctx, "user"))
	got, err := repo.Get(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Clear(ctx))
	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSQLiteRepository_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupDB(t))

	// both writes land together
	err := repo.Update(ctx, func(r Repository) error {
		if err := r.Set(ctx, "user", []byte(`{"_id":"1"}`)); err != nil {
			return err
		}
		return r.Set(ctx, "token", []byte("t1"))
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("t1"), got)

	// a failing callback rolls the batch back
	boom := errors.New("boom")
	err = repo.Update(ctx, func(r Repository) error {
		if err := r.Set(ctx, "token", []byte("t2")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("t1"), got)
}

package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/storage"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func sampleState() models.SessionState {
	return models.SessionState{
		User:          &models.User{ID: 7, Email: "ana@ufc.br", Groups: []string{"ALUNO"}},
		Tokens:        models.Tokens{Access: "a", Refresh: "r"},
		Authenticated: true,
	}
}

func TestMemorySessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	state, err := repo.Load(ctx, "auth-storage.x")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, repo.Save(ctx, "auth-storage.x", sampleState()))
	state, err = repo.Load(ctx, "auth-storage.x")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "ana@ufc.br", state.User.Email)
	assert.True(t, state.Authenticated)

	require.NoError(t, repo.Delete(ctx, "auth-storage.x"))
	state, err = repo.Load(ctx, "auth-storage.x")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileSessionRepositoryPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, NewFileSessionRepository(files).Save(ctx, "auth-storage.abc", sampleState()))

	reopened, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	state, err := NewFileSessionRepository(reopened).Load(ctx, "auth-storage.abc")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "r", state.Tokens.Refresh)

	missing, err := NewFileSessionRepository(reopened).Load(ctx, "auth-storage.other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileSessionRepositoryRejectsCorruptState(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, files.Write("auth-storage.bad", []byte("{not json")))

	_, err = NewFileSessionRepository(files).Load(context.Background(), "auth-storage.bad")
	assert.Error(t, err)
}

func TestPostgresSessionRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewPostgresSessionRepository(db)
	rows := sqlmock.NewRows([]string{"state"}).
		AddRow([]byte(`{"user":{"id":7,"email":"ana@ufc.br"},"tokens":{"access":"a","refresh":"r"},"isAuthenticated":true}`))
	mock.ExpectQuery("SELECT state FROM client_sessions").
		WithArgs("auth-storage.x").
		WillReturnRows(rows)

	state, err := repo.Load(context.Background(), "auth-storage.x")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 7, state.User.ID)
	assert.Equal(t, "a", state.Tokens.Access)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionRepositoryLoadMissing(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT state FROM client_sessions").
		WithArgs("auth-storage.none").
		WillReturnError(sql.ErrNoRows)

	state, err := NewPostgresSessionRepository(db).Load(context.Background(), "auth-storage.none")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestPostgresSessionRepositorySaveUpserts(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO client_sessions").
		WithArgs("auth-storage.x", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewPostgresSessionRepository(db).Save(context.Background(), "auth-storage.x", sampleState()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionRepositoryDeleteAndPurge(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewPostgresSessionRepository(db)

	mock.ExpectExec("DELETE FROM client_sessions WHERE key").
		WithArgs("auth-storage.x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "auth-storage.x"))

	mock.ExpectExec("DELETE FROM client_sessions WHERE updated_at").
		WithArgs(sqlmock.AnyArg(), pq.Array([]string{"auth-storage.live"})).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.Purge(context.Background(), time.Hour, []string{"auth-storage.live"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileSessionRepositoryPurgeSkipsLiveSessions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := NewFileSessionRepository(files)

	require.NoError(t, repo.Save(ctx, "auth-storage.idle", sampleState()))
	require.NoError(t, repo.Save(ctx, "auth-storage.live", sampleState()))
	past := time.Now().Add(-2 * time.Hour)
	for _, name := range []string{"auth-storage.idle", "auth-storage.live"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, name), past, past))
	}

	n, err := repo.Purge(ctx, time.Hour, []string{"auth-storage.live"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := repo.Load(ctx, "auth-storage.live")
	require.NoError(t, err)
	assert.NotNil(t, state)
	state, err = repo.Load(ctx, "auth-storage.idle")
	require.NoError(t, err)
	assert.Nil(t, state)
}

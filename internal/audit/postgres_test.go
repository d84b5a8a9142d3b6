package audit

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStore_RecordView(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	viewedAt := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO report_views")).
		WithArgs("650001", 68, 1, "advice", "req-1", "api", viewedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	view := &domain.ReportView{
		HN:            "650001",
		Year:          68,
		AbnormalCount: 1,
		Advisory:      "advice",
		RequestID:     "req-1",
		Source:        "api",
		ViewedAt:      viewedAt,
	}
	require.NoError(t, store.RecordView(context.Background(), view))

	assert.Equal(t, int64(42), view.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	viewedAt := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "hn", "year", "abnormal_count", "advisory", "request_id", "source", "viewed_at"}).
		AddRow(2, "650002", 68, 0, "ok", "req-2", "web", viewedAt).
		AddRow(1, "650001", 67, 3, "see", "req-1", "api", viewedAt.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_views")).
		WithArgs(50, 0).
		WillReturnRows(rows)

	views, err := store.List(context.Background(), 0, -1)
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, "650002", views[0].HN)
	assert.Equal(t, 3, views[1].AbnormalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountAndPurge(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM report_views")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report_views WHERE viewed_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	removed, err := store.Purge(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStore_RequiresDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)

	_, err = NewPostgresStoreFromURL("")
	assert.Error(t, err)
}

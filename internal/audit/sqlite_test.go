package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit", "views.db"))
	require.NoError(t, err)
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "views.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())

	_, err = NewSQLiteStore("")
	assert.Error(t, err)
}

func TestSQLiteStore_RecordView(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	view := &domain.ReportView{
		HN:            "650001",
		Year:          68,
		AbnormalCount: 2,
		Advisory:      "ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง",
		RequestID:     "req-1",
		Source:        "api",
	}

	require.NoError(t, store.RecordView(ctx, view))
	assert.NotZero(t, view.ID)
	assert.False(t, view.ViewedAt.IsZero())

	views, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, view.HN, views[0].HN)
	assert.Equal(t, view.Advisory, views[0].Advisory)
	assert.Equal(t, 68, views[0].Year)
	assert.True(t, view.ViewedAt.Equal(views[0].ViewedAt))
}

func TestSQLiteStore_ListNewestFirstAndPaginate(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordView(ctx, &domain.ReportView{
			HN:       "65000" + string(rune('1'+i)),
			Year:     68,
			ViewedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "650005", page[0].HN)
	assert.Equal(t, "650004", page[1].HN)

	page, err = store.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "650001", page[0].HN)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSQLiteStore_Purge(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordView(ctx, &domain.ReportView{HN: "old", Year: 67, ViewedAt: base.Add(-48 * time.Hour)}))
	require.NoError(t, store.RecordView(ctx, &domain.ReportView{HN: "new", Year: 68, ViewedAt: base}))

	removed, err := store.Purge(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	views, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "new", views[0].HN)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.RecordView(ctx, &domain.ReportView{HN: "650001", Year: 68}))
	require.NoError(t, store.RecordView(ctx, &domain.ReportView{HN: "650002", Year: 67}))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)
	assert.Len(t, export.Views, 2)
}

func TestOpen(t *testing.T) {
	store, err := Open(domain.AuditConfig{Backend: domain.AuditNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = Open(domain.AuditConfig{Backend: domain.AuditSQLite, SQLitePath: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())

	_, err = Open(domain.AuditConfig{Backend: "mongo"})
	assert.Error(t, err)

	store, err = Open(domain.AuditConfig{Backend: domain.AuditSQLite})
	assert.Error(t, err)
	assert.Nil(t, store)
}

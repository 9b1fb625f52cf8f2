package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/schedule"
)

func TestSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("Expected error for empty db path")
	}
}

func TestSQLiteStore_ConfigDefaults(t *testing.T) {
	store, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath: filepath.Join(t.TempDir(), "meridian.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.checkpointInterval != 5*time.Minute {
		t.Errorf("Expected default checkpoint interval 5m, got %v", store.checkpointInterval)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "meridian.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Insert(ctx, testAlert("alert-1", storeNow)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.PutSchedule(ctx, testSchedule("sched-1")); err != nil {
		t.Fatalf("PutSchedule failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	list, err := reopened.ListByProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "alert-1" {
		t.Errorf("Expected alert-1 to survive reopen, got %+v", list)
	}

	sched, err := reopened.GetSchedule(ctx, "sched-1")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}
	if sched.Kind != schedule.KindInvoice || !sched.Active {
		t.Errorf("Schedule round-trip mismatch: %+v", sched)
	}
}

func TestSQLiteStore_CloseIsIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "meridian.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
}

// Dedup survives process restarts because it is evaluated against the
// persisted rows, not in-process state.
func TestSQLiteStore_DedupAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "meridian.db")
	ctx := context.Background()

	store, _ := NewSQLiteStore(dbPath)
	store.Insert(ctx, testAlert("alert-1", storeNow))
	store.Close()

	reopened, _ := NewSQLiteStore(dbPath)
	defer reopened.Close()

	err := reopened.Insert(ctx, testAlert("alert-2", storeNow.Add(time.Hour)))
	if err != alerts.ErrDuplicateAlert {
		t.Errorf("Expected ErrDuplicateAlert after reopen, got: %v", err)
	}
}

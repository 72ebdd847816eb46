package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/weekplan/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, setupTestStore(t))
}

func TestLoad(t *testing.T) {
	t.Run("uninitialized", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
		if err := store.Load(); err == nil {
			t.Error("Load() on a missing database should fail")
		}
	})

	t.Run("after init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")
		store := NewStore(path)
		if err := store.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		store.Close()

		reopened := NewStore(path)
		if err := reopened.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		defer reopened.Close()
		if reopened.GetConfigPath() != path {
			t.Errorf("GetConfigPath() = %q, want %q", reopened.GetConfigPath(), path)
		}
		if _, err := reopened.GetSettings(); err != nil {
			t.Errorf("GetSettings() after Load error = %v", err)
		}
	})

	t.Run("init is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")
		for i := 0; i < 2; i++ {
			store := NewStore(path)
			if err := store.Init(); err != nil {
				t.Fatalf("Init() #%d error = %v", i+1, err)
			}
			store.Close()
		}
	})
}

func TestTableExists(t *testing.T) {
	store := setupTestStore(t)

	tests := []struct {
		table string
		want  bool
	}{
		{table: "tasks", want: true},
		{table: "TASKS", want: true},
		{table: "schema_version", want: true},
		{table: "habits", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got, err := store.tableExists(tt.table)
			if err != nil {
				t.Fatalf("tableExists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("tableExists(%q) = %v, want %v", tt.table, got, tt.want)
			}
		})
	}
}

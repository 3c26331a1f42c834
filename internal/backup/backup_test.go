package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, now time.Time) *Manager {
	t.Helper()
	m := NewManager(filepath.Join(t.TempDir(), "backups"))
	m.clock = func() time.Time { return now }
	return m
}

func TestCreateBackup(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 33, 0, time.Local)
	m := newTestManager(t, now)

	path, err := m.CreateBackup(`[{"id":"a"}]`)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if filepath.Base(path) != "habitlit-20240309-1405.json" {
		t.Errorf("unexpected name %s", filepath.Base(path))
	}
	data, err := m.ReadBackup(path)
	if err != nil || data != `[{"id":"a"}]` {
		t.Errorf("ReadBackup = %q, %v", data, err)
	}
}

func TestCreateBackupRejectsInvalidJSON(t *testing.T) {
	m := newTestManager(t, time.Now())
	if _, err := m.CreateBackup("[{"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCreateBackupSameMinute(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 33, 0, time.Local)
	m := newTestManager(t, now)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		path, err := m.CreateBackup("[]")
		if err != nil {
			t.Fatalf("backup %d failed: %v", i, err)
		}
		if seen[path] {
			t.Fatalf("duplicate backup path %s", path)
		}
		seen[path] = true
	}

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 4 {
		t.Errorf("got %d backups, want 4", len(backups))
	}
}

func TestRotation(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	m := newTestManager(t, start)

	for i := 0; i < 20; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		m.clock = func() time.Time { return ts }
		if _, err := m.CreateBackup("[]"); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 14 {
		t.Fatalf("got %d backups, want 14", len(backups))
	}
	newest := start.Add(19 * time.Hour)
	if !backups[0].Timestamp.Equal(newest) {
		t.Errorf("newest = %v, want %v", backups[0].Timestamp, newest)
	}
	oldestKept := start.Add(6 * time.Hour)
	if !backups[13].Timestamp.Equal(oldestKept) {
		t.Errorf("oldest = %v, want %v", backups[13].Timestamp, oldestKept)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	m := newTestManager(t, time.Now())
	if err := os.MkdirAll(m.GetBackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "habitlit-garbage.json", "daylit-20240101-1200.db"} {
		os.WriteFile(filepath.Join(m.GetBackupDir(), name), []byte("[]"), 0600)
	}
	backups, err := m.ListBackups()
	if err != nil || len(backups) != 0 {
		t.Errorf("ListBackups = %v, %v", backups, err)
	}
}

func TestListMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	backups, err := m.ListBackups()
	if err != nil || len(backups) != 0 {
		t.Errorf("ListBackups = %v, %v", backups, err)
	}
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitlit-20240309-1405.json", true},
		{"habitlit-20240309-140533.json", true},
		{"habitlit-20240309-140533-2.json", true},
		{"habitlit-2024.json", false},
	}
	for _, tt := range tests {
		if _, ok := parseStamp(tt.name); ok != tt.ok {
			t.Errorf("parseStamp(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	m := newTestManager(t, now)

	if _, err := m.Resolve("latest"); err == nil {
		t.Error("expected error with no backups")
	}

	first, _ := m.CreateBackup("[]")
	later := now.Add(time.Hour)
	m.clock = func() time.Time { return later }
	second, _ := m.CreateBackup(`[{"id":"b"}]`)

	if got, err := m.Resolve("latest"); err != nil || got != second {
		t.Errorf("Resolve(latest) = %q, %v", got, err)
	}
	if got, err := m.Resolve(filepath.Base(first)); err != nil || got != first {
		t.Errorf("Resolve(name) = %q, %v", got, err)
	}
	if _, err := m.Resolve("habitlit-19990101-0000.json"); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("expected missing backup error, got %v", err)
	}
}

func TestReadBackupCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitlit-20240101-0000.json")
	os.WriteFile(path, []byte("not json"), 0600)
	if _, err := NewManager(filepath.Dir(path)).ReadBackup(path); err == nil {
		t.Error("expected error for corrupt backup")
	}
}

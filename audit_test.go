package mokmanager

import (
	"path/filepath"
	"testing"
)

func openTestAudit(t *testing.T) *AuditStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := OpenAuditStore(path)
	if err != nil {
		t.Fatalf("OpenAuditStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAuditStoreRecordAndRecent(t *testing.T) {
	store := openTestAudit(t)

	if err := store.Record("enroll-mok", 1, "committed"); err != nil {
		t.Fatal(err)
	}
	if err := store.Record("delete-mok", 0, "access-denied"); err != nil {
		t.Fatal(err)
	}

	events, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// newest first
	if events[0].Action != "delete-mok" || events[0].Result != "access-denied" {
		t.Fatalf("unexpected newest event: %+v", events[0])
	}
	if events[1].Action != "enroll-mok" || events[1].EntryCount != 1 || events[1].Result != "committed" {
		t.Fatalf("unexpected oldest event: %+v", events[1])
	}
	if events[0].Time.IsZero() {
		t.Fatal("expected a non-zero recorded timestamp")
	}
}

func TestAuditStoreRecentRespectsLimit(t *testing.T) {
	store := openTestAudit(t)
	for i := 0; i < 5; i++ {
		if err := store.Record("enroll-hash", 1, "committed"); err != nil {
			t.Fatal(err)
		}
	}
	events, err := store.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestAuditStoreEmpty(t *testing.T) {
	store := openTestAudit(t)
	events, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

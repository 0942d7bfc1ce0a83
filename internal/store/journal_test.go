package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestJournal_WriteAndRead(t *testing.T) {
	dir := t.TempDir()

	jw, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("OpenJournal failed: %v", err)
	}

	record := createTestRecord(t)
	entries := []JournalEntry{
		EntryFromRecord(record),
		{ID: "second", Algorithm: "radial", Seed: 7, Size: 1024, Elapsed: time.Second, Timestamp: time.Now()},
	}
	for _, e := range entries {
		if err := jw.Write(e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := jw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if jw.Path() != filepath.Join(dir, "journal.jsonl") {
		t.Errorf("Unexpected journal path %s", jw.Path())
	}

	read, err := ReadJournal(dir)
	if err != nil {
		t.Fatalf("ReadJournal failed: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(read))
	}
	if read[0].ID != record.ID || read[0].Algorithm != "linear" {
		t.Errorf("First entry mismatch: %+v", read[0])
	}
	if read[1].Elapsed != time.Second {
		t.Errorf("Elapsed mismatch: %v", read[1].Elapsed)
	}
}

func TestJournal_Appends(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		jw, err := OpenJournal(dir)
		if err != nil {
			t.Fatalf("OpenJournal failed: %v", err)
		}
		if err := jw.Write(JournalEntry{ID: "x", Timestamp: time.Now()}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := jw.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		jw.Close()
	}

	read, err := ReadJournal(dir)
	if err != nil {
		t.Fatalf("ReadJournal failed: %v", err)
	}
	if len(read) != 3 {
		t.Errorf("Expected 3 entries after reopening, got %d", len(read))
	}
}

func TestJournal_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	jw, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("OpenJournal failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			jw.Write(JournalEntry{ID: "c", Seed: seed, Timestamp: time.Now()})
		}(int64(i))
	}
	wg.Wait()
	jw.Close()

	read, err := ReadJournal(dir)
	if err != nil {
		t.Fatalf("ReadJournal failed: %v", err)
	}
	if len(read) != 20 {
		t.Errorf("Expected 20 entries, got %d", len(read))
	}
}

func TestReadJournal_Missing(t *testing.T) {
	entries, err := ReadJournal(t.TempDir())
	if err != nil {
		t.Fatalf("Missing journal should not error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestReadJournal_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "journal.jsonl"), []byte("{\"id\":\"ok\"}\n\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadJournal(dir)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("Expected error mentioning line 3, got %v", err)
	}
}

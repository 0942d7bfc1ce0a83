package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const journalFile = "journal.jsonl"

// JournalEntry is one line of the generation journal.
type JournalEntry struct {
	ID        string        `json:"id"`
	Algorithm string        `json:"algorithm"`
	Seed      int64         `json:"seed"`
	Size      int           `json:"size"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// EntryFromRecord summarizes a record as a journal line.
func EntryFromRecord(r *Record) JournalEntry {
	return JournalEntry{
		ID:        r.ID,
		Algorithm: r.Algorithm,
		Seed:      r.Seed,
		Size:      r.Size,
		Elapsed:   r.Elapsed,
		Timestamp: r.CreatedAt,
	}
}

// JournalWriter appends entries to <baseDir>/journal.jsonl.
// It uses buffered I/O and is safe for concurrent use.
type JournalWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// OpenJournal opens the journal for appending, creating it if needed.
func OpenJournal(baseDir string) (*JournalWriter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(baseDir, journalFile)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &JournalWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 16*1024),
		path:   path,
	}, nil
}

// Write appends an entry. It is buffered until Flush or Close.
func (jw *JournalWriter) Write(entry JournalEntry) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	if _, err := jw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := jw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (jw *JournalWriter) Flush() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	if err := jw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return nil
}

// Close flushes buffered entries and closes the file.
func (jw *JournalWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := jw.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}

// Path returns the journal file path.
func (jw *JournalWriter) Path() string {
	return jw.path
}

// ReadJournal reads every entry in <baseDir>/journal.jsonl.
// A missing journal yields no entries and no error.
func ReadJournal(baseDir string) ([]JournalEntry, error) {
	file, err := os.Open(filepath.Join(baseDir, journalFile))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	return decodeJournal(file)
}

func decodeJournal(r io.Reader) ([]JournalEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []JournalEntry
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal journal line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan journal: %w", err)
	}
	return entries, nil
}

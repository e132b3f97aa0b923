package store

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndReadBack(t *testing.T) {
	tempDir := t.TempDir()

	tw, err := NewTraceWriter(tempDir, "run-1", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	entries := []TraceEntry{
		{Generation: 1, BestFitness: 50, Timestamp: time.Now()},
		{Generation: 2, BestFitness: 32, Timestamp: time.Now()},
		{Generation: 3, BestFitness: 18.5, Timestamp: time.Now(), Params: []float64{4.5, 5.5}},
	}
	for _, entry := range entries {
		if err := tw.Write(entry); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr, err := NewTraceReader(tempDir, "run-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	got, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	for i, entry := range got {
		if entry.Generation != i+1 {
			t.Errorf("entry[%d].Generation = %d, want %d", i, entry.Generation, i+1)
		}
	}
	if got[2].BestFitness != 18.5 {
		t.Errorf("entry[2].BestFitness = %v, want 18.5", got[2].BestFitness)
	}
	if len(got[2].Params) != 2 {
		t.Errorf("entry[2].Params = %v, want 2 values", got[2].Params)
	}
	if got[0].Params != nil {
		t.Errorf("entry[0].Params = %v, want omitted", got[0].Params)
	}
}

func TestTraceWriter_AppendKeepsHistory(t *testing.T) {
	tempDir := t.TempDir()

	tw, err := NewTraceWriter(tempDir, "run-a", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.Write(TraceEntry{Generation: 1, BestFitness: 50, Timestamp: time.Now()})
	tw.Close()

	// A resumed segment appends instead of truncating.
	tw, err = NewTraceWriter(tempDir, "run-a", true)
	if err != nil {
		t.Fatalf("NewTraceWriter (append) failed: %v", err)
	}
	tw.Write(TraceEntry{Generation: 2, BestFitness: 32, Timestamp: time.Now()})
	tw.Close()

	tr, err := NewTraceReader(tempDir, "run-a")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	entries, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries after append, got %d", len(entries))
	}
	if entries[0].Generation != 1 || entries[1].Generation != 2 {
		t.Errorf("Unexpected generations: %d, %d", entries[0].Generation, entries[1].Generation)
	}
}

func TestTraceWriter_TruncateMode(t *testing.T) {
	tempDir := t.TempDir()

	tw, _ := NewTraceWriter(tempDir, "run-t", false)
	tw.Write(TraceEntry{Generation: 1, BestFitness: 50, Timestamp: time.Now()})
	tw.Close()

	tw, _ = NewTraceWriter(tempDir, "run-t", false)
	tw.Write(TraceEntry{Generation: 1, BestFitness: 10, Timestamp: time.Now()})
	tw.Close()

	tr, err := NewTraceReader(tempDir, "run-t")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	entries, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 1 || entries[0].BestFitness != 10 {
		t.Errorf("Expected single fresh entry, got %v", entries)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTraceReader_ReadSequential(t *testing.T) {
	tempDir := t.TempDir()

	tw, _ := NewTraceWriter(tempDir, "seq", false)
	tw.Write(TraceEntry{Generation: 1, BestFitness: 9, Timestamp: time.Now()})
	tw.Close()

	tr, err := NewTraceReader(tempDir, "seq")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	entry, err := tr.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entry.Generation != 1 {
		t.Errorf("Generation = %d, want 1", entry.Generation)
	}

	if _, err := tr.Read(); err != io.EOF {
		t.Errorf("Expected io.EOF at end, got %v", err)
	}
}

func TestDeleteTrace(t *testing.T) {
	tempDir := t.TempDir()

	tw, _ := NewTraceWriter(tempDir, "del", false)
	tw.Write(TraceEntry{Generation: 1, BestFitness: 1, Timestamp: time.Now()})
	tw.Close()

	if err := DeleteTrace(tempDir, "del"); err != nil {
		t.Fatalf("DeleteTrace failed: %v", err)
	}
	if _, err := NewTraceReader(tempDir, "del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing trace is not an error.
	if err := DeleteTrace(tempDir, "never-existed"); err != nil {
		t.Errorf("DeleteTrace on missing file should be nil, got %v", err)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMergePages(t *testing.T) {
	pages := [][]byte{
		[]byte(`[{"id": 1}, {"id": 2}]`),
		[]byte(`[{"id": 3}, {"id": 4}]`),
		[]byte(`[{"id": 5}]`),
	}

	merged, err := mergePages(pages)
	if err != nil {
		t.Fatalf("mergePages() error = %v", err)
	}

	var items []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(merged, &items); err != nil {
		t.Fatalf("Merged output is not a JSON array: %v", err)
	}

	if len(items) != 5 {
		t.Fatalf("Got %d items, want 5", len(items))
	}
	for i, item := range items {
		if item.ID != i+1 {
			t.Errorf("items[%d].ID = %d, want %d (page order must be preserved)", i, item.ID, i+1)
		}
	}
}

func TestMergePages_Empty(t *testing.T) {
	merged, err := mergePages(nil)
	if err != nil {
		t.Fatalf("mergePages() error = %v", err)
	}
	if string(merged) != "[]" {
		t.Errorf("mergePages(nil) = %s, want empty array", merged)
	}
}

func TestMergePages_EmptyPages(t *testing.T) {
	merged, err := mergePages([][]byte{[]byte(`[]`), []byte(`[{"id": 1}]`), []byte(`[]`)})
	if err != nil {
		t.Fatalf("mergePages() error = %v", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(merged, &items); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Got %d items, want 1", len(items))
	}
}

func TestMergePages_InvalidPage(t *testing.T) {
	_, err := mergePages([][]byte{
		[]byte(`[{"id": 1}]`),
		[]byte(`{"not": "an array"}`),
	})
	if err == nil {
		t.Fatal("Expected error for non-array page")
	}
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := writeOutput(path, []byte(`[{"id": 1}]`)); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "[{\"id\": 1}]\n" {
		t.Errorf("File contents = %q, want payload with trailing newline", data)
	}
}

func TestSetupCache_RedisUnavailable(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// Port 1 refuses connections; the run must continue without a cache.
	manager, closeCache := setupCache(context.Background(), logger, "127.0.0.1:1")
	if manager != nil {
		t.Error("Expected nil cache manager when Redis is unreachable")
	}
	if closeCache == nil {
		t.Fatal("Cleanup func must not be nil")
	}
	closeCache()

	if !strings.Contains(buf.String(), "Redis unavailable") {
		t.Errorf("Expected a warning about Redis, got %s", buf.String())
	}
}

func TestWriteOutput_BadPath(t *testing.T) {
	if err := writeOutput(filepath.Join(t.TempDir(), "missing", "out.json"), []byte(`[]`)); err == nil {
		t.Error("Expected error for unwritable path")
	}
}

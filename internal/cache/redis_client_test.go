package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/codescope/codescope-go/internal/config"
)

func TestDisabledCacheIsPassThrough(t *testing.T) {
	c := New(context.Background(), config.CacheConfig{Enabled: false})
	defer c.Close()

	if c.Enabled() {
		t.Fatal("disabled cache should report not enabled")
	}

	var out string
	if c.Get(context.Background(), "k", &out) {
		t.Error("disabled cache should always miss")
	}
	if c.Set(context.Background(), "k", "v") {
		t.Error("disabled cache should not store")
	}
	if c.Delete(context.Background(), "k") {
		t.Error("disabled cache should not delete")
	}
	if n := c.InvalidateProject(context.Background(), "p"); n != 0 {
		t.Errorf("disabled cache invalidated %d keys, want 0", n)
	}
}

func TestFileContextKey(t *testing.T) {
	got := FileContextKey("proj1", "src/main.py")
	want := "filectx:proj1:src/main.py"
	if got != want {
		t.Errorf("FileContextKey = %q, want %q", got, want)
	}
}

func TestSearchKeyStableAndBounded(t *testing.T) {
	long := strings.Repeat("find the thing ", 200)

	first := SearchKey("proj1", long)
	second := SearchKey("proj1", long)
	if first != second {
		t.Error("search key should be deterministic for identical queries")
	}
	if len(first) > 64 {
		t.Errorf("search key too long: %d chars", len(first))
	}
	if !strings.HasPrefix(first, "search:proj1:") {
		t.Errorf("unexpected key shape: %q", first)
	}

	if SearchKey("proj1", "a") == SearchKey("proj1", "b") {
		t.Error("different queries should produce different keys")
	}
	if SearchKey("proj1", "a") == SearchKey("proj2", "a") {
		t.Error("different projects should produce different keys")
	}
}

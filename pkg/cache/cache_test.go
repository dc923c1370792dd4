package cache

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if n := len(Hash(nil)); n != 64 {
		t.Errorf("len(Hash) = %d, want 64", n)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{HorizontalSpacing: 250, LevelSpacing: 200})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{HorizontalSpacing: 300, LevelSpacing: 200})
	if lk1 == lk2 {
		t.Error("different LayoutKeyOpts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{HorizontalSpacing: 250, LevelSpacing: 200}) {
		t.Error("LayoutKey should be deterministic")
	}
	if !strings.HasPrefix(lk1, "layout:"+keyVersion+":") {
		t.Errorf("LayoutKey = %s", lk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", EdgeLabels: true})
	if ak1 == ak2 {
		t.Error("different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak1, "artifact:") {
		t.Errorf("ArtifactKey = %s", ak1)
	}
}

func TestDefaultKeyerNonFiniteOptions(t *testing.T) {
	k := NewDefaultKeyer()
	nan := ArtifactKeyOpts{Format: "dot", Scale: math.NaN()}
	inf := ArtifactKeyOpts{Format: "dot", Scale: math.Inf(1)}

	keys := map[string]string{
		"nan/alpha": k.ArtifactKey("alpha", nan),
		"nan/beta":  k.ArtifactKey("beta", nan),
		"inf/alpha": k.ArtifactKey("alpha", inf),
		"svg/alpha": k.ArtifactKey("alpha", ArtifactKeyOpts{Format: "svg", Scale: math.NaN()}),
		"layout":    k.LayoutKey("alpha", LayoutKeyOpts{HorizontalSpacing: math.NaN()}),
	}
	seen := map[string]string{}
	for name, key := range keys {
		if other, dup := seen[key]; dup {
			t.Errorf("%s and %s share key %s", name, other, key)
		}
		seen[key] = name
	}
	if keys["nan/alpha"] != k.ArtifactKey("alpha", nan) {
		t.Error("key with NaN scale is not deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	tests := []struct {
		scope, want string
	}{
		{"staging:", "staging:"},
		{"staging", "staging:"},
		{"", ""},
	}
	for _, tt := range tests {
		k := NewScopedKeyer(inner, tt.scope)
		if got := k.LayoutKey("abc", LayoutKeyOpts{}); got != tt.want+inner.LayoutKey("abc", LayoutKeyOpts{}) {
			t.Errorf("scope %q: LayoutKey = %s", tt.scope, got)
		}
		if got := k.ArtifactKey("abc", ArtifactKeyOpts{}); !strings.HasPrefix(got, tt.want+"artifact:") {
			t.Errorf("scope %q: ArtifactKey = %s", tt.scope, got)
		}
	}

	// A nil inner keyer falls back to the default.
	if key := NewScopedKeyer(nil, "prefix:").LayoutKey("x", LayoutKeyOpts{}); !strings.HasPrefix(key, "prefix:layout:") {
		t.Errorf("nil inner: %s", key)
	}
}

func TestKeyPrefixesCoverKeys(t *testing.T) {
	for _, scope := range []string{"", "prod", "prod:"} {
		k := NewScopedKeyer(nil, scope)
		keys := []string{k.LayoutKey("a", LayoutKeyOpts{}), k.ArtifactKey("a", ArtifactKeyOpts{Format: "svg"})}
		prefixes := KeyPrefixes(scope)
		for i, key := range keys {
			if !strings.HasPrefix(key, prefixes[i]) {
				t.Errorf("scope %q: key %s not under %s", scope, key, prefixes[i])
			}
		}
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "layout:a", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:a")
	if err != nil || !hit || string(data) != `{"nodes":[]}` {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "layout:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:a"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "layout:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}

	// Zero TTL never expires
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	for _, content := range []string{"not json", `{"key":"other"}` + "\nvalue"} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
			t.Errorf("%q: hit %v, err %v", content, hit, err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%q: entry should be removed", content)
		}
	}
}

func TestFileCacheBinaryValue(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	value := []byte("\x89PNG\r\n\x1a\n\x00line\nbreaks")
	if err := c.Set(ctx, "png", value, 0); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "png")
	if err != nil || !hit || string(got) != string(value) {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", c.Dir(), dir)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("shard directories left behind: %d", len(entries))
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "old", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "live", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	n, err := c.Prune()
	if err != nil || n != 1 {
		t.Fatalf("Prune() = %d, %v, want 1", n, err)
	}
	if _, hit, _ := c.Get(ctx, "live"); !hit {
		t.Error("live entry pruned")
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("SCENEGRAPH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SCENEGRAPH_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "scenegraph-test:" + Hash([]byte(t.Name()))
	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Fatalf("Get before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, key); !hit || err != nil || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	n, err := c.Clear(ctx, "scenegraph-test:")
	if err != nil || n < 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

var errNotFound = errors.New("not found")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(errNotFound) {
		t.Error("unmarked error reported retryable")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"FirstTry", 0, nil, 1, nil},
		{"NotRetryable", 5, errNotFound, 1, errNotFound},
		{"RecoversAfterRetry", 1, Retryable(ErrNetwork), 2, nil},
		{"GivesUp", 5, Retryable(ErrNetwork), 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultBackoff.Do(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

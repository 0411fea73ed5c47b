package localstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory()
	val := []byte(`{"saved":true}`)
	if err := m.Put(context.Background(), "k1", val); err != nil {
		t.Fatalf("Put: %v", err)
	}
	val[0] = 'X'

	got, ok := m.Get("k1")
	if !ok || string(got) != `{"saved":true}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestMemory_Keys(t *testing.T) {
	m := NewMemory()
	_ = m.Put(context.Background(), "b", nil)
	_ = m.Put(context.Background(), "a", nil)
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestMemory_EmptyKey(t *testing.T) {
	if err := NewMemory().Put(context.Background(), "", nil); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// File
// ---------------------------------------------------------------------------

func TestFileSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	f, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	key := "fetalcare_result_2024-06-01T10:20:30.000Z"
	if err := f.Put(context.Background(), key, []byte(`{"saved":true}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := f.Path(key)
	if strings.Contains(filepath.Base(path), ":") {
		t.Errorf("path should not contain ':' (%s)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"saved":true}` {
		t.Errorf("content = %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestFileSink_PutOverwrites(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	for _, v := range []string{`{"n":1}`, `{"n":2}`} {
		if err := f.Put(context.Background(), "result", []byte(v)); err != nil {
			t.Fatalf("Put %s: %v", v, err)
		}
	}
	data, err := os.ReadFile(f.Path("result"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"n":2}` {
		t.Errorf("content = %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestFileSink_RequiresDir(t *testing.T) {
	if _, err := NewFileSink(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

func TestRedisSink_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisSink(client, time.Minute)
	defer s.Close()

	if err := s.Put(context.Background(), "k", []byte("v")); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if err := s.Put(context.Background(), "", []byte("v")); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestNewRedisSinkFromURL_BadURL(t *testing.T) {
	if _, err := NewRedisSinkFromURL(context.Background(), "http://nope", 0); err == nil {
		t.Fatal("expected parse error")
	}
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "", Options{})
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("default sink = %T, want *Memory", s)
	}

	s, err = Open(context.Background(), KindFile, Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*FileSink); !ok {
		t.Errorf("file sink = %T", s)
	}

	if _, err := Open(context.Background(), "s3", Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

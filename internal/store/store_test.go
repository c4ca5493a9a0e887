package store

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "save.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	data, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok || data != nil {
		t.Errorf("empty store returned ok=%v data=%q", ok, data)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save([]byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save([]byte(`{"v":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(data, []byte(`{"v":2}`)) {
		t.Errorf("got %q, want latest snapshot", data)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save([]byte("snapshot")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Error("snapshot survived clear")
	}
}

package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func runDatabaseSuite(t *testing.T, db Database) {
	t.Helper()
	key := []byte("alpha")

	if _, err := db.Get(key); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("missing key: expected ErrKeyNotFound, got %v", err)
	}
	has, err := db.Has(key)
	if err != nil || has {
		t.Fatalf("missing key: has=%v err=%v", has, err)
	}

	if err := db.Put(key, []byte("one")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get(key)
	if err != nil || string(value) != "one" {
		t.Fatalf("get: value=%q err=%v", value, err)
	}
	has, err = db.Has(key)
	if err != nil || !has {
		t.Fatalf("stored key: has=%v err=%v", has, err)
	}

	// Overwrite replaces the value.
	if err := db.Put(key, []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _ = db.Get(key)
	if string(value) != "two" {
		t.Fatalf("overwrite not applied, got %q", value)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("deleted key: expected ErrKeyNotFound, got %v", err)
	}
	// Deleting a missing key is a no-op.
	if err := db.Delete(key); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	runDatabaseSuite(t, db)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	value := []byte("mutable")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "mutable" {
		t.Fatalf("stored value aliased caller slice, got %q", got)
	}
	got[0] = 'Y'
	again, _ := db.Get([]byte("k"))
	if string(again) != "mutable" {
		t.Fatalf("returned value aliased stored slice, got %q", again)
	}
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()
	runDatabaseSuite(t, db)
}

package kvlog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		line    string
		want    Record
		wantErr bool
	}{
		{"a\t1", Record{Key: "a", Value: "1"}, false},
		{"a\t", Record{Key: "a", Value: ""}, false},
		{"a\t\x00", Record{Key: "a", Value: Tombstone}, false},
		{"", Record{}, true},
		{"a", Record{}, true},
		{"a\t1\t2", Record{}, true},
	}

	for _, tt := range tests {
		got, err := Decode(tt.line)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Decode(%q): want ErrInvalidRecord, got %v", tt.line, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Decode(%q) failed: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Decode(%q): want %+v, got %+v", tt.line, tt.want, got)
		}
	}
}

func TestEncode(t *testing.T) {
	if got := Encode("key", "value"); got != "key\tvalue\n" {
		t.Errorf("Encode: got %q", got)
	}
	if got := Encode("key", Tombstone); got != "key\t\x00\n" {
		t.Errorf("Encode tombstone: got %q", got)
	}
}

func TestOpenReadMissing(t *testing.T) {
	_, err := OpenRead(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestAppendFindLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	w, err := OpenAppend(path)
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	appends := [][2]string{
		{"a", "1"},
		{"b", "2"},
		{"a", "10"},
		{"c", "3"},
	}
	for _, kv := range appends {
		if err := w.Append(kv[0], kv[1]); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}
	if err := w.MarkDeleted("c"); err != nil {
		t.Fatalf("Failed to mark deleted: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close log: %v", err)
	}

	r, err := OpenRead(path)
	if err != nil {
		t.Fatalf("Failed to reopen log: %v", err)
	}
	defer r.Close()

	tests := []struct {
		key   string
		want  string
		found bool
	}{
		{"a", "10", true}, // last write wins
		{"b", "2", true},
		{"c", "", false}, // tombstoned
		{"z", "", false}, // never written
	}
	for _, tt := range tests {
		got, found, err := r.FindLast(tt.key)
		if err != nil {
			t.Fatalf("FindLast(%s) failed: %v", tt.key, err)
		}
		if found != tt.found || got != tt.want {
			t.Errorf("FindLast(%s): want (%q, %v), got (%q, %v)", tt.key, tt.want, tt.found, got, found)
		}
	}
}

func TestIterateOrderAndUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(path, []byte("a\t1\nb\t2\nc\t3"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := OpenRead(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var keys []string
	err = r.Iterate(func(rec Record) error {
		keys = append(keys, rec.Key)
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("Expected a,b,c, got %v", keys)
	}
}

func TestAppendAfterUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(path, []byte("a\t1"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := OpenAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append("b", "2"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "a\t1\nb\t2\n" {
		t.Errorf("Unexpected log content %q", data)
	}
}

func TestIterateAbortsOnMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(path, []byte("a\t1\nbroken\nb\t2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := OpenRead(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	seen := 0
	err = r.Iterate(func(Record) error {
		seen++
		return nil
	})
	var invalid *InvalidRecordError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidRecordError, got %v", err)
	}
	if invalid.Line != 2 || invalid.Text != "broken" {
		t.Errorf("Unexpected error details: %+v", invalid)
	}
	if seen != 1 {
		t.Errorf("Expected scan to stop after 1 record, saw %d", seen)
	}

	if _, _, err := r.FindLast("b"); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("FindLast: expected ErrInvalidRecord, got %v", err)
	}
}

func TestLargeValueRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	big := strings.Repeat("x", 1<<20)

	w, err := OpenAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append("big", big); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := OpenRead(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, found, err := r.FindLast("big")
	if err != nil || !found {
		t.Fatalf("FindLast failed: found=%v err=%v", found, err)
	}
	if len(got) != len(big) {
		t.Errorf("Expected %d bytes, got %d", len(big), len(got))
	}
}

func TestCompact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	content := "b\t1\na\t1\nb\t2\nc\t3\nc\t\x00\na\t\x00\na\t4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := Compact(path, filepath.Join(dir, "test.db.tmp"))
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if stats.Records != 7 || stats.Live != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\t4\nb\t2\n" {
		t.Errorf("Unexpected compacted log: %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "test.db.tmp")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected temp file to be gone, stat err: %v", err)
	}
}

func TestCompactMissingLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.db")

	stats, err := Compact(path, path+".tmp")
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if stats != (CompactStats{}) {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Compact must not create the log, stat err: %v", err)
	}
}

func TestCompactKeepsMalformedLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	content := "a\t1\nbroken\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Compact(path, path+".tmp"); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Expected ErrInvalidRecord, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Errorf("Log must be untouched, got %q", data)
	}
}

func TestSyncDir(t *testing.T) {
	if err := syncDir(t.TempDir()); err != nil {
		t.Errorf("syncDir failed: %v", err)
	}
	if err := syncDir(filepath.Join(t.TempDir(), "gone")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestCompactRelativePath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.WriteFile("test.db", []byte("a\t1\na\t2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := Compact("test.db", "test.db.tmp")
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if stats.Live != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	data, _ := os.ReadFile("test.db")
	if string(data) != "a\t2\n" {
		t.Errorf("Unexpected compacted log: %q", data)
	}
}

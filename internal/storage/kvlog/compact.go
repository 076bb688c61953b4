package kvlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/btree"
)

// CompactStats reports what a compaction pass did.
type CompactStats struct {
	Records int // lines in the log before the rewrite
	Live    int // lines written, one per live key
}

type liveItem struct {
	rec Record
}

func (i *liveItem) Less(than btree.Item) bool {
	return i.rec.Key < than.(*liveItem).rec.Key
}

// Snapshot resolves the whole log with last-write-wins and returns the live
// records in key order, plus the number of lines read.
func (l *Log) Snapshot() ([]Record, int, error) {
	tree := btree.New(32)
	total := 0
	err := l.Iterate(func(r Record) error {
		total++
		if r.Deleted() {
			tree.Delete(&liveItem{rec: r})
			return nil
		}
		tree.ReplaceOrInsert(&liveItem{rec: r})
		return nil
	})
	if err != nil {
		return nil, total, err
	}

	live := make([]Record, 0, tree.Len())
	tree.Ascend(func(i btree.Item) bool {
		live = append(live, i.(*liveItem).rec)
		return true
	})
	return live, total, nil
}

// Compact rewrites the log at path so that it holds exactly one record per
// live key, dropping superseded and tombstoned records. The new content is
// written to tmpPath, synced, then renamed over path, and the directory is
// synced so the rename itself survives a crash. The caller must hold the
// store's exclusive lock for the whole call. A missing log is left missing.
func Compact(path, tmpPath string) (CompactStats, error) {
	src, err := OpenRead(path)
	if errors.Is(err, fs.ErrNotExist) {
		return CompactStats{}, nil
	}
	if err != nil {
		return CompactStats{}, err
	}
	live, total, err := src.Snapshot()
	src.Close()
	if err != nil {
		return CompactStats{}, err
	}

	stats := CompactStats{Records: total, Live: len(live)}
	if err := writeAll(tmpPath, live); err != nil {
		os.Remove(tmpPath)
		return stats, fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return stats, err
	}
	if err := syncDir(filepath.Dir(path)); err != nil {
		return stats, fmt.Errorf("sync dir of %s: %w", path, err)
	}
	return stats, nil
}

// syncDir fsyncs a directory so entries renamed into it are durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

func writeAll(path string, records []Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	f.Close()

	dst, err := OpenAppend(path)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := dst.write(r.Key, r.Value); err != nil {
			dst.Close()
			return err
		}
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

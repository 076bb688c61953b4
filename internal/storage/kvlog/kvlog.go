// Package kvlog implements the on-disk record log: one "key<TAB>value" line
// per record, appended and never rewritten in place. The last record for a
// key wins; a Tombstone value marks the key as deleted.
package kvlog

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// Log is a handle on a record log file, opened either for scanning or for
// appending.
type Log struct {
	f    *os.File
	w    *bufio.Writer
	path string
}

// OpenRead opens an existing log for scanning. It fails if the file does not
// exist; callers decide whether that means "empty".
func OpenRead(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Log{f: f, path: path}, nil
}

// OpenAppend opens the log for appending, creating it if absent. If the last
// record lacks its terminator, one is written first so the next append starts
// on its own line.
func OpenAppend(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	l := &Log{f: f, w: bufio.NewWriter(f), path: path}
	if err := l.terminate(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) terminate() error {
	st, err := l.f.Stat()
	if err != nil || st.Size() == 0 {
		return err
	}
	last := make([]byte, 1)
	if _, err := l.f.ReadAt(last, st.Size()-1); err != nil {
		return err
	}
	if last[0] == lineEnd {
		return nil
	}
	return l.w.WriteByte(lineEnd)
}

// Path returns the file the log was opened on.
func (l *Log) Path() string {
	return l.path
}

// Iterate reads every record from the start of the file, calling handler for
// each in log order. A malformed line aborts the scan with an
// *InvalidRecordError; an error from handler aborts it as well.
func (l *Log) Iterate(handler func(Record) error) error {
	if _, err := l.f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	r := bufio.NewReaderSize(l.f, 64*1024)
	for n := 1; ; n++ {
		line, err := r.ReadString(lineEnd)
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF
		if eof && line == "" {
			return nil
		}

		rec, derr := Decode(strings.TrimSuffix(line, string(lineEnd)))
		if derr != nil {
			var invalid *InvalidRecordError
			if errors.As(derr, &invalid) {
				invalid.Line = n
			}
			return derr
		}
		if err := handler(rec); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// FindLast scans the whole log and returns the value of the last record for
// key. found is false when the key never appears or its last record is a
// tombstone. Only the last record is authoritative, so the scan cannot stop
// early.
func (l *Log) FindLast(key string) (value string, found bool, err error) {
	err = l.Iterate(func(r Record) error {
		if r.Key == key {
			value = r.Value
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if found && value == Tombstone {
		return "", false, nil
	}
	return value, found, nil
}

// Append writes a record and makes it durable before returning.
func (l *Log) Append(key, value string) error {
	if err := l.write(key, value); err != nil {
		return err
	}
	return l.Sync()
}

// MarkDeleted appends a tombstone for key.
func (l *Log) MarkDeleted(key string) error {
	return l.Append(key, Tombstone)
}

func (l *Log) write(key, value string) error {
	if l.w == nil {
		return errors.New("log opened read-only")
	}
	_, err := l.w.WriteString(Encode(key, value))
	return err
}

// Sync flushes buffered records and fsyncs the file.
func (l *Log) Sync() error {
	if l.w != nil {
		if err := l.w.Flush(); err != nil {
			return err
		}
	}
	return l.f.Sync()
}

// Close flushes any buffered records and closes the file.
func (l *Log) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	if l.w != nil {
		if err := l.w.Flush(); err != nil {
			_ = l.f.Close()
			return err
		}
	}
	return l.f.Close()
}

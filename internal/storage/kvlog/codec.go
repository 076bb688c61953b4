package kvlog

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator splits the key from the value on a log line.
	Separator = "\t"

	// Tombstone is the value appended to mark a key as deleted.
	// Clients can never submit it: the transport rejects NUL bytes.
	Tombstone = "\x00"

	lineEnd = '\n'
)

// ErrInvalidRecord is returned when a log line does not split into
// exactly a key and a value.
var ErrInvalidRecord = errors.New("invalid record")

// Record is one decoded log line.
type Record struct {
	Key   string
	Value string
}

// Deleted reports whether the record is a tombstone.
func (r Record) Deleted() bool {
	return r.Value == Tombstone
}

// InvalidRecordError describes a malformed line found while scanning.
type InvalidRecordError struct {
	Line int // 1-based
	Text string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("Invalid record '%s' at line %d", e.Text, e.Line)
}

func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

// Encode renders key and value as a single log line including the terminator.
// Keys and values must not contain Separator or line terminators.
func Encode(key, value string) string {
	var b strings.Builder
	b.Grow(len(key) + len(value) + 2)
	b.WriteString(key)
	b.WriteString(Separator)
	b.WriteString(value)
	b.WriteByte(lineEnd)
	return b.String()
}

// Decode parses a line without its terminator.
func Decode(line string) (Record, error) {
	parts := strings.Split(line, Separator)
	if len(parts) != 2 {
		return Record{}, &InvalidRecordError{Text: line}
	}
	return Record{Key: parts[0], Value: parts[1]}, nil
}

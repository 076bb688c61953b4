package server

import (
	"errors"
	"strings"
)

const (
	// MaxKeySize is the maximum allowed size in bytes for a key.
	MaxKeySize = 1024
	// MaxValueSize is the maximum allowed size in bytes for a value.
	MaxValueSize = 1 << 20
)

var (
	ErrEmptyKey       = errors.New("key should not be empty")
	ErrKeyTooLarge    = errors.New("key exceeds maximum size")
	ErrValueTooLarge  = errors.New("value exceeds maximum size")
	ErrReservedByte   = errors.New("tab, newline, carriage return and NUL are not allowed")
	ErrStatementEmpty = errors.New("statement should not be empty")
)

// reserved holds the bytes the log format uses as separators or markers.
const reserved = "\t\n\r\x00"

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(key) > MaxKeySize {
		return ErrKeyTooLarge
	}
	if strings.ContainsAny(key, reserved) {
		return ErrReservedByte
	}
	return nil
}

func validateValue(value string) error {
	if len(value) > MaxValueSize {
		return ErrValueTooLarge
	}
	if strings.ContainsAny(value, reserved) {
		return ErrReservedByte
	}
	return nil
}

// Package serializers converts row key values between their stored column
// bytes and Go values.
package serializers

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Deserializer decodes raw column bytes into a key of type K.
type Deserializer[K comparable] interface {
	// Decode converts raw column bytes; nil bytes are a decode error
	Decode(raw []byte) (K, error)
	// Name identifies the stored type, e.g. "text" or "bigint"
	Name() string
}

// Serializer converts in both directions.
type Serializer[K comparable] interface {
	Deserializer[K]
	Encode(v K) []byte
}

// Encoding selects how numeric values are laid out in column bytes.
type Encoding int

const (
	// Binary is the fixed-width big-endian layout used by native protocols
	Binary Encoding = iota
	// Text is the decimal layout returned by text protocols
	Text
)

// DecodeError reports column bytes a deserializer could not decode.
type DecodeError struct {
	Type   string
	Raw    []byte
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Raw == nil {
		return fmt.Sprintf("cannot decode %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("cannot decode %s from %d bytes: %s", e.Type, len(e.Raw), e.Reason)
}

func decodeErr(typ string, raw []byte, format string, args ...interface{}) error {
	return &DecodeError{Type: typ, Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

type stringSerializer struct{}

// String returns the UTF-8 text serializer.
func String() Serializer[string] { return stringSerializer{} }

func (stringSerializer) Name() string { return "text" }

func (stringSerializer) Decode(raw []byte) (string, error) {
	if raw == nil {
		return "", decodeErr("text", nil, "null value")
	}
	if !utf8.Valid(raw) {
		return "", decodeErr("text", raw, "invalid utf-8")
	}
	return string(raw), nil
}

func (stringSerializer) Encode(v string) []byte { return []byte(v) }

type asciiSerializer struct{}

// ASCII returns a serializer that rejects bytes outside 7-bit ASCII.
func ASCII() Serializer[string] { return asciiSerializer{} }

func (asciiSerializer) Name() string { return "ascii" }

func (asciiSerializer) Decode(raw []byte) (string, error) {
	if raw == nil {
		return "", decodeErr("ascii", nil, "null value")
	}
	for i, b := range raw {
		if b > 0x7f {
			return "", decodeErr("ascii", raw, "non-ascii byte 0x%02x at %d", b, i)
		}
	}
	return string(raw), nil
}

func (asciiSerializer) Encode(v string) []byte { return []byte(v) }

type int32Serializer struct{ enc Encoding }

// Int32 returns a 4-byte big-endian int serializer.
func Int32() Serializer[int32] { return int32Serializer{enc: Binary} }

// Int32Text returns a decimal text int serializer.
func Int32Text() Serializer[int32] { return int32Serializer{enc: Text} }

func (s int32Serializer) Name() string { return "int" }

func (s int32Serializer) Decode(raw []byte) (int32, error) {
	if raw == nil {
		return 0, decodeErr("int", nil, "null value")
	}
	if s.enc == Text {
		v, err := strconv.ParseInt(string(raw), 10, 32)
		if err != nil {
			return 0, decodeErr("int", raw, "%v", err)
		}
		return int32(v), nil
	}
	if len(raw) != 4 {
		return 0, decodeErr("int", raw, "expected 4 bytes")
	}
	return int32(binary.BigEndian.Uint32(raw)), nil
}

func (s int32Serializer) Encode(v int32) []byte {
	if s.enc == Text {
		return []byte(strconv.FormatInt(int64(v), 10))
	}
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

type int64Serializer struct{ enc Encoding }

// Int64 returns an 8-byte big-endian bigint serializer.
func Int64() Serializer[int64] { return int64Serializer{enc: Binary} }

// Int64Text returns a decimal text bigint serializer.
func Int64Text() Serializer[int64] { return int64Serializer{enc: Text} }

func (s int64Serializer) Name() string { return "bigint" }

func (s int64Serializer) Decode(raw []byte) (int64, error) {
	if raw == nil {
		return 0, decodeErr("bigint", nil, "null value")
	}
	if s.enc == Text {
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, decodeErr("bigint", raw, "%v", err)
		}
		return v, nil
	}
	if len(raw) != 8 {
		return 0, decodeErr("bigint", raw, "expected 8 bytes")
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

func (s int64Serializer) Encode(v int64) []byte {
	if s.enc == Text {
		return []byte(strconv.FormatInt(v, 10))
	}
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

type uuidSerializer struct{}

// UUID returns a serializer accepting both the 16-byte and the canonical
// 36-character forms. It encodes to the 16-byte form.
func UUID() Serializer[uuid.UUID] { return uuidSerializer{} }

func (uuidSerializer) Name() string { return "uuid" }

func (uuidSerializer) Decode(raw []byte) (uuid.UUID, error) {
	switch len(raw) {
	case 0:
		if raw == nil {
			return uuid.Nil, decodeErr("uuid", nil, "null value")
		}
		return uuid.Nil, decodeErr("uuid", raw, "empty value")
	case 16:
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return uuid.Nil, decodeErr("uuid", raw, "%v", err)
		}
		return id, nil
	default:
		id, err := uuid.ParseBytes(raw)
		if err != nil {
			return uuid.Nil, decodeErr("uuid", raw, "%v", err)
		}
		return id, nil
	}
}

func (uuidSerializer) Encode(v uuid.UUID) []byte {
	b := v
	return b[:]
}

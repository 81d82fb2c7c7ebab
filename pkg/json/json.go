// Package json provides JSON serialization backed by goccy/go-json with
// pooled buffers.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// getBuffer gets a pooled, reset bytes.Buffer
func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// NewEncoder returns an encoder writing to w that does not escape HTML.
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// StreamingEncoder writes a sequence of values either as a JSON array or as
// newline-delimited documents. Values are encoded into a pooled buffer first,
// so a failed Encode leaves nothing on the writer.
type StreamingEncoder struct {
	writer  io.Writer
	first   bool
	isArray bool
	indent  string
	closed  bool
}

// NewStreamingEncoder creates a streaming encoder. The opening bracket of an
// array is written with the first value, or by Close for an empty sequence.
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	return &StreamingEncoder{writer: w, first: true, isArray: isArray}
}

// SetPretty enables indentation
func (se *StreamingEncoder) SetPretty(indent string) {
	se.indent = indent
}

// Encode writes a single value
func (se *StreamingEncoder) Encode(v interface{}) error {
	buf := getBuffer()
	defer putBuffer(buf)

	switch {
	case !se.isArray:
	case se.first:
		buf.WriteByte('[')
	default:
		buf.WriteByte(',')
	}
	if se.isArray && se.indent != "" {
		buf.WriteByte('\n')
	}

	enc := NewEncoder(buf)
	if se.indent != "" {
		enc.SetIndent("", se.indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	// array elements are separated by commas, not newlines
	if se.isArray {
		buf.Truncate(buf.Len() - 1)
	}

	if _, err := se.writer.Write(buf.Bytes()); err != nil {
		return err
	}
	se.first = false
	return nil
}

// Close terminates an array. It is a no-op for newline-delimited output.
func (se *StreamingEncoder) Close() error {
	if se.closed || !se.isArray {
		se.closed = true
		return nil
	}
	se.closed = true

	end := "]\n"
	switch {
	case se.first:
		end = "[]\n"
	case se.indent != "":
		end = "\n]\n"
	}
	_, err := io.WriteString(se.writer, end)
	return err
}

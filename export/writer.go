// Package export renders stored rows into the CSV layouts expected by
// downstream importers.
package export

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes CSV records with every field quoted and LF line endings.
// Embedded quotes are doubled.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one record. After the first error every call is a no-op
// returning that error.
func (w *Writer) Write(record []string) error {
	if w.err != nil {
		return w.err
	}

	for i, field := range record {
		if i > 0 {
			w.put(",")
		}
		w.put(`"`)
		w.put(strings.ReplaceAll(field, `"`, `""`))
		w.put(`"`)
	}
	w.put("\n")

	return w.err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

func (w *Writer) put(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}

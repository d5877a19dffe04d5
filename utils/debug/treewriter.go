// Package debug formats indented plain text dumps which go into debug
// reports.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

const indent = "  "

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	b strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.b.WriteString(indent)
	}
}

// Line writes formatted line at the given depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(&tw.b, format, args...)
	tw.b.WriteByte('\n')
}

// Field writes "label: value" line, non-empty values are quoted so
// whitespace and control characters stay visible.
func (tw *TreeWriter) Field(depth int, label, value string) {
	tw.pad(depth)
	tw.b.WriteString(label)
	tw.b.WriteString(": ")
	tw.b.WriteString(encodeText(value))
	tw.b.WriteByte('\n')
}

// Fields writes every map entry as a field, keys in natural order. Empty
// values are skipped.
func (tw *TreeWriter) Fields(depth int, fields map[string]string) {
	for _, k := range SortedKeys(fields) {
		if fields[k] == "" {
			continue
		}
		tw.Field(depth, k, fields[k])
	}
}

// SortedKeys returns map keys in natural order ("item2" before "item10").
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/replacer/internal/host"
)

// DefaultMarker is the document prefix that turns substitution on.
const DefaultMarker = "#replacer on\n"

// Gate decides from the document head whether substitution is on.
type Gate struct {
	marker string
	length int // marker length in characters
}

// NewGate returns a gate for marker. An empty marker enables every document.
func NewGate(marker string) Gate {
	return Gate{marker: marker, length: utf8.RuneCountInString(marker)}
}

// Marker returns the marker text.
func (g Gate) Marker() string {
	return g.marker
}

// Evaluate returns the enabled state for doc. A document shorter than the
// marker leaves prior unchanged; otherwise the state is whether the document
// starts with the marker.
func (g Gate) Evaluate(doc host.Document, prior bool) (bool, error) {
	if doc.Length() < g.length {
		return prior, nil
	}
	head, err := doc.Read(0, g.length)
	if err != nil {
		return prior, fmt.Errorf("read marker: %w", err)
	}
	return head == g.marker, nil
}

package memhost

import (
	"fmt"

	"github.com/roach88/replacer/internal/host"
)

// EditKind distinguishes logged edits.
type EditKind string

const (
	EditInsert EditKind = "insert"
	EditErase  EditKind = "erase"
)

// Edit is one applied change, kept in the document's edit log.
type Edit struct {
	Kind   EditKind `json:"kind" yaml:"kind"`
	Offset int      `json:"offset" yaml:"offset"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	Length int      `json:"length" yaml:"length"`
	Author uint     `json:"author" yaml:"author"`
}

// Document is a rune-addressed in-memory text buffer.
//
// Document is not safe for concurrent use; drive it from the Loop goroutine.
type Document struct {
	text     []rune
	inserted signal[host.InsertFunc]
	erased   signal[host.EraseFunc]
	edits    []Edit
}

var _ host.Document = (*Document)(nil)

// NewDocument returns a document holding text.
func NewDocument(text string) *Document {
	return &Document{text: []rune(text)}
}

// Text returns the whole content.
func (d *Document) Text() string {
	return string(d.text)
}

// Length returns the length in runes.
func (d *Document) Length() int {
	return len(d.text)
}

// Read returns length runes starting at offset.
func (d *Document) Read(offset, length int) (string, error) {
	if offset < 0 || length < 0 || offset+length > len(d.text) {
		return "", fmt.Errorf("read [%d,+%d) out of range (length %d)", offset, length, len(d.text))
	}
	return string(d.text[offset : offset+length]), nil
}

// Insert inserts text at offset and notifies unblocked observers.
func (d *Document) Insert(offset int, text string, author host.User) error {
	if offset < 0 || offset > len(d.text) {
		return fmt.Errorf("insert at %d out of range (length %d)", offset, len(d.text))
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]rune, 0, len(d.text)+len(runes))
	out = append(out, d.text[:offset]...)
	out = append(out, runes...)
	out = append(out, d.text[offset:]...)
	d.text = out

	d.edits = append(d.edits, Edit{Kind: EditInsert, Offset: offset, Text: text, Length: len(runes), Author: author.ID})
	for _, fn := range d.inserted.active() {
		fn(offset, text, author)
	}
	return nil
}

// Erase removes length runes at offset and notifies unblocked observers.
func (d *Document) Erase(offset, length int, author host.User) error {
	if offset < 0 || length < 0 || offset+length > len(d.text) {
		return fmt.Errorf("erase [%d,+%d) out of range (length %d)", offset, length, len(d.text))
	}
	if length == 0 {
		return nil
	}

	d.text = append(d.text[:offset:offset], d.text[offset+length:]...)

	d.edits = append(d.edits, Edit{Kind: EditErase, Offset: offset, Length: length, Author: author.ID})
	for _, fn := range d.erased.active() {
		fn(offset, length, author)
	}
	return nil
}

// Replace swaps the whole content for text as one erase followed by one
// insert, both attributed to author.
func (d *Document) Replace(text string, author host.User) error {
	if err := d.Erase(0, len(d.text), author); err != nil {
		return err
	}
	return d.Insert(0, text, author)
}

// OnInserted registers an insert observer.
func (d *Document) OnInserted(fn host.InsertFunc) host.Subscription {
	return d.inserted.connect(fn)
}

// OnErased registers an erase observer.
func (d *Document) OnErased(fn host.EraseFunc) host.Subscription {
	return d.erased.connect(fn)
}

// Observers returns the number of connected insert and erase observers.
func (d *Document) Observers() int {
	return d.inserted.len() + d.erased.len()
}

// Edits returns the edit log in application order.
func (d *Document) Edits() []Edit {
	out := make([]Edit, len(d.edits))
	copy(out, d.edits)
	return out
}

// ResetEdits clears the edit log.
func (d *Document) ResetEdits() {
	d.edits = nil
}

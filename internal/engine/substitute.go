package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/rules"
)

// substitute applies one pass of table to doc on behalf of author and
// returns the edits made, in order.
//
// Each rule scans a fresh read of the whole document. Occurrences are found
// in that snapshot; delta converts a snapshot offset into the live offset
// after the replacements already made for this rule. The scan resumes after
// the matched text, so a replacement is never rescanned by its own rule.
//
// A document error abandons the current rule only; the pass continues with
// the next rule and the errors are returned joined.
func substitute(doc host.Document, table *rules.Table, author host.User) ([]ir.Edit, error) {
	var (
		edits []ir.Edit
		errs  []error
	)

	for i := 0; i < table.Len(); i++ {
		rule := table.Rule(i)
		needle := rule.Needle()
		if needle == "" || rule.Replacement == "" {
			continue
		}

		ruleEdits, err := substituteRule(doc, rule.Pattern, needle, rule.Replacement, author)
		edits = append(edits, ruleEdits...)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", rule.Pattern, err))
		}
	}

	return edits, errors.Join(errs...)
}

func substituteRule(doc host.Document, pattern, needle, replacement string, author host.User) ([]ir.Edit, error) {
	text, err := doc.Read(0, doc.Length())
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var (
		edits     []ir.Edit
		needleLen = utf8.RuneCountInString(needle)
		replLen   = utf8.RuneCountInString(replacement)
		delta     = 0 // live offset minus snapshot offset
		pos       = 0 // byte position in text
		runePos   = 0 // rune offset of text[:pos]
	)

	for {
		idx := strings.Index(text[pos:], needle)
		if idx < 0 {
			break
		}
		runePos += utf8.RuneCountInString(text[pos : pos+idx])
		offset := runePos + delta

		// Insert before erase so the span is never transiently empty
		if err := doc.Insert(offset, replacement, author); err != nil {
			return edits, fmt.Errorf("insert at %d: %w", offset, err)
		}
		if err := doc.Erase(offset+replLen, needleLen, author); err != nil {
			return edits, fmt.Errorf("erase at %d: %w", offset+replLen, err)
		}
		edits = append(edits, ir.Edit{
			Rule:      pattern,
			Offset:    offset,
			Inserted:  replacement,
			ErasedLen: needleLen,
		})

		delta += replLen - needleLen
		pos += idx + len(needle)
		runePos += needleLen
	}

	return edits, nil
}

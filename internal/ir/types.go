package ir

// Edit is one substitution committed by the engine's virtual participant.
//
// The engine applies an edit as an insertion of Inserted at Offset followed
// by an erasure of ErasedLen characters starting at Offset+len(Inserted).
type Edit struct {
	Rule      string `json:"rule"`       // source key of the rule that fired
	Offset    int    `json:"offset"`     // character offset in the document at commit time
	Inserted  string `json:"inserted"`   // replacement text
	ErasedLen int    `json:"erased_len"` // characters of the matched pattern removed
}

// Pass is the record of one substitution pass over a document.
//
// Only passes that committed at least one edit are journaled.
type Pass struct {
	ID       string `json:"id"`       // pass identifier (UUIDv7 in production)
	Document string `json:"document"` // host-supplied document name
	Seq      int64  `json:"seq"`      // logical clock value
	Rules    int    `json:"rules"`    // number of rules in the table snapshot
	Edits    []Edit `json:"edits"`
	Digest   string `json:"digest"` // content digest after the pass
}

// EditCount returns the number of edits committed by the pass.
func (p Pass) EditCount() int {
	return len(p.Edits)
}

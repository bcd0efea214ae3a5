package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainContent is the domain prefix for document content digests.
// The version suffix leaves room for a future algorithm change.
const DomainContent = "replacer/content/v1"

// ContentDigest computes SHA256(domain + 0x00 + text) for a document snapshot.
// The null separator prevents domain/data boundary ambiguity.
func ContentDigest(text string) string {
	h := sha256.New()
	h.Write([]byte(DomainContent))
	h.Write([]byte{0x00})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

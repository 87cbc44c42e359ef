// Package textnorm produces the canonical dedup key for submitted words.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key returns the normalized form of a word used for deduplication: trimmed,
// NFC-composed, and Unicode case-folded. Folding rather than lowercasing keeps
// the key stable for Cyrillic and mixed-script input. A fresh Caser per call
// because a Caser is stateful and not safe for concurrent use.
func Key(text string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(text)))
}

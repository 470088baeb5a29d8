// file: internals/features/diagnosis/submissions/service/answer_key.go
package service

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeShortAnswer: NFKC, trim, collapse whitespace runs, case-fold.
// Full-width letters and digits fold to their ASCII forms via NFKC.
func NormalizeShortAnswer(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return folder.String(s)
}

// MatchShortAnswer reports whether answer matches key. An empty answer is
// never correct, even against an empty key.
func MatchShortAnswer(answer, key string) bool {
	a := NormalizeShortAnswer(answer)
	if a == "" {
		return false
	}
	return a == NormalizeShortAnswer(key)
}

// Package similarity scores how close two short texts are after
// normalization. It is the primitive behind translation grading.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for comparison: NFC composition, full case
// folding, trimmed ends and single spaces between words.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Score returns a similarity in [0,1] between a and b based on the
// normalized edit distance (maxLen-distance)/maxLen, measured in runes.
//
// Score is symmetric. It is 1 iff the normalized strings are identical and
// 0 when exactly one of them is empty.
func Score(a, b string) float64 {
	return ScoreNormalized(Normalize(a), Normalize(b))
}

// ScoreNormalized is Score for inputs that already went through Normalize.
func ScoreNormalized(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := max(la, lb)
	d := levenshtein.Distance(a, b, nil)
	s := float64(maxLen-d) / float64(maxLen)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

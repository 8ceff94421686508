package arena

import (
	"regexp"
	"strings"
)

var (
	boundedMoveRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])([a-h][1-8][a-h][1-8][qrbn]?)(?:$|[^a-z0-9])`)
	bareMoveRe    = regexp.MustCompile(`(?i)[a-h][1-8][a-h][1-8][qrbn]?`)
)

// ExtractMove finds the first move-shaped token in free-form agent text.
// A token standing on its own wins over one buried inside a longer word.
func ExtractMove(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if m := boundedMoveRe.FindStringSubmatch(text); len(m) == 2 {
		return strings.ToLower(m[1]), true
	}
	if loc := bareMoveRe.FindStringIndex(text); loc != nil {
		m := text[loc[0]:loc[1]]
		// "e2e4now": the n belongs to the next word, not a promotion
		if len(m) == 5 && loc[1] < len(text) && isASCIILetter(text[loc[1]]) {
			m = m[:4]
		}
		return strings.ToLower(m), true
	}
	return "", false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

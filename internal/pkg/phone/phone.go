package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-socfony/internal/domain"
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

var separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Normalize formats raw into E.164. Spaces, dashes, dots and parentheses are
// dropped and a leading "00" is read as "+".
func Normalize(raw string) (string, error) {
	p := separators.Replace(strings.TrimSpace(raw))
	if strings.HasPrefix(p, "00") {
		p = "+" + p[2:]
	}
	if !e164.MatchString(p) {
		return "", fmt.Errorf("invalid phone number %q: %w", raw, domain.ErrBadRequest)
	}
	return p, nil
}

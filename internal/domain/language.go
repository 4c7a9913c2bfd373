package domain

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// ErrInvalidLanguage is returned for a language code that is not BCP 47.
var ErrInvalidLanguage = errors.New("invalid language")

// NormalizeLanguage returns the canonical BCP 47 form of raw ("EN-us" becomes
// "en-US") so cache keys and store lookups agree. Empty stays empty.
func NormalizeLanguage(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidLanguage, raw, err)
	}
	return tag.String(), nil
}

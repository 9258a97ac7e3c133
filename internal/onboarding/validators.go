package onboarding

import (
	"slices"
	"strings"
)

// GroupCodeLength is the number of alphanumeric characters in a group code
const GroupCodeLength = 4

// ValidateGroupCode strips everything but ASCII letters and digits and
// accepts exactly GroupCodeLength of them. The code is returned uppercased.
func ValidateGroupCode(raw string) (string, error) {
	code := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, raw)
	if len(code) != GroupCodeLength {
		return "", invalid("group code", "Please enter a valid 4-character group code")
	}
	return strings.ToUpper(code), nil
}

// ValidateProfile returns the trimmed name when both a name and one of the
// offered avatars were given.
func ValidateProfile(name, avatar string, avatars []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "Please enter your name")
	}
	if avatar == "" {
		return "", invalid("avatar", "Please select an avatar")
	}
	if !slices.Contains(avatars, avatar) {
		return "", invalid("avatar", "Please choose one of the offered avatars")
	}
	return name, nil
}

// ValidatePreferences requires at least one gift in the ledger.
func ValidatePreferences(l *Ledger) error {
	if l.Len() == 0 {
		return invalid("preferences", "Please add at least one gift")
	}
	return nil
}

package onboarding

import (
	"slices"
	"strings"

	"giftgroup-onboarding/internal/models"
)

// Ledger is the ordered list of gifts a user asked for. Duplicates are kept.
type Ledger struct {
	entries []models.GiftEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a gift for occasion. The gift is trimmed; a blank gift or an
// occasion without an id is rejected and the ledger is left as it was.
func (l *Ledger) Append(occasion models.Occasion, gift string) (models.GiftEntry, error) {
	gift = strings.TrimSpace(gift)
	if gift == "" {
		return models.GiftEntry{}, invalid("gift", "Please enter a gift name")
	}
	if occasion.ID == "" {
		return models.GiftEntry{}, invalid("occasion", "Please select an occasion")
	}
	e := models.GiftEntry{Occasion: occasion, Gift: gift}
	l.entries = append(l.entries, e)
	return e, nil
}

// RemoveAt deletes the entry at index and reports whether anything was removed.
func (l *Ledger) RemoveAt(index int) bool {
	if index < 0 || index >= len(l.entries) {
		return false
	}
	l.entries = slices.Delete(l.entries, index, index+1)
	return true
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of the entries in order.
func (l *Ledger) Entries() []models.GiftEntry {
	return slices.Clone(l.entries)
}

// Serialize flattens the ledger into the strings stored on the user record.
func (l *Ledger) Serialize() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Serialize())
	}
	return out
}

package models

import (
	"strings"
	"time"
)

// DateLayout is how occasion dates are written in serialized preferences
const DateLayout = "2006-01-02"

// Occasion is a named event a gift can be requested for
type Occasion struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Date     time.Time `json:"date,omitempty"`
	IsCustom bool      `json:"is_custom,omitempty"`
}

// HasDate reports whether the occasion is tied to a calendar date.
func (o Occasion) HasDate() bool {
	return !o.Date.IsZero()
}

// DateString returns the date in DateLayout, or "" when there is none.
func (o Occasion) DateString() string {
	if !o.HasDate() {
		return ""
	}
	return o.Date.Format(DateLayout)
}

// GiftEntry is one gift requested for one occasion
type GiftEntry struct {
	Occasion Occasion `json:"occasion"`
	Gift     string   `json:"gift"`
}

// Serialize flattens the entry to "<occasionId>:<gift>:<date>".
// The label and custom flag are not kept.
func (e GiftEntry) Serialize() string {
	return strings.Join([]string{e.Occasion.ID, e.Gift, e.Occasion.DateString()}, ":")
}

package onboarding

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"giftgroup-onboarding/internal/models"
)

type preset struct {
	id    string
	label string
	month time.Month
	day   int
}

var presets = []preset{
	{id: "christmas", label: "Christmas", month: time.December, day: 25},
	{id: "valentines", label: "Valentine's Day", month: time.February, day: 14},
	{id: "halloween", label: "Halloween", month: time.October, day: 31},
	{id: "birthday", label: "Birthday"}, // differs per person
}

// PresetOccasions returns the built-in occasions, each dated on its next
// occurrence on or after now.
func PresetOccasions(now time.Time) []models.Occasion {
	occasions := make([]models.Occasion, 0, len(presets))
	for _, p := range presets {
		o := models.Occasion{ID: p.id, Label: p.label}
		if p.day != 0 {
			o.Date = nextOccurrence(now, p.month, p.day)
		}
		occasions = append(occasions, o)
	}
	return occasions
}

func nextOccurrence(now time.Time, month time.Month, day int) time.Time {
	today := startOfDay(now)
	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Catalog holds the occasions a user can pick from during the preferences
// step, plus the current selection and a custom occasion awaiting its date.
type Catalog struct {
	occasions []models.Occasion
	selected  string
	pending   *models.Occasion
}

// NewCatalog returns a catalog seeded with PresetOccasions(now).
func NewCatalog(now time.Time) *Catalog {
	return &Catalog{occasions: PresetOccasions(now)}
}

// Occasions returns the catalog in insertion order.
func (c *Catalog) Occasions() []models.Occasion {
	return slices.Clone(c.occasions)
}

// Lookup finds an occasion by id.
func (c *Catalog) Lookup(id string) (models.Occasion, bool) {
	i := slices.IndexFunc(c.occasions, func(o models.Occasion) bool { return o.ID == id })
	if i < 0 {
		return models.Occasion{}, false
	}
	return c.occasions[i], true
}

// Search returns occasions whose label contains query, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(query string) []models.Occasion {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Occasion
	for _, o := range c.occasions {
		if strings.Contains(strings.ToLower(o.Label), q) {
			out = append(out, o)
		}
	}
	return out
}

// Select makes the occasion with the given id the target of the next gift.
func (c *Catalog) Select(id string) (models.Occasion, error) {
	o, ok := c.Lookup(id)
	if !ok {
		return models.Occasion{}, fmt.Errorf("%w: %q", ErrUnknownOccasion, id)
	}
	c.selected = o.ID
	return o, nil
}

// Selected returns the active selection, if any.
func (c *Catalog) Selected() (models.Occasion, bool) {
	if c.selected == "" {
		return models.Occasion{}, false
	}
	return c.Lookup(c.selected)
}

// ProposeCustom stages a custom occasion that still needs a date.
// A blank label is ignored. A staged proposal replaces any earlier one.
func (c *Catalog) ProposeCustom(label string) (models.Occasion, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Occasion{}, nil
	}
	slug := Slugify(label)
	if slug == "" {
		return models.Occasion{}, invalid("occasion", "Please use letters or digits in the occasion name")
	}
	o := models.Occasion{ID: c.uniqueID(slug), Label: label, IsCustom: true}
	c.pending = &o
	return o, nil
}

// Pending returns the staged custom occasion, if any.
func (c *Catalog) Pending() (models.Occasion, bool) {
	if c.pending == nil {
		return models.Occasion{}, false
	}
	return *c.pending, true
}

// CommitCustomDate dates the staged custom occasion, adds it to the catalog
// and selects it.
func (c *Catalog) CommitCustomDate(date time.Time) (models.Occasion, error) {
	if c.pending == nil {
		return models.Occasion{}, ErrNoPendingOccasion
	}
	if date.IsZero() {
		return models.Occasion{}, invalid("date", "Please pick a date for "+c.pending.Label)
	}
	o := *c.pending
	o.Date = startOfDay(date)
	c.occasions = append(c.occasions, o)
	c.selected = o.ID
	c.pending = nil
	return o, nil
}

func (c *Catalog) uniqueID(base string) string {
	id := base
	for n := 2; ; n++ {
		if _, taken := c.Lookup(id); !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

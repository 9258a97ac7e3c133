package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spring = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func TestPresetOccasions(t *testing.T) {
	got := PresetOccasions(spring)
	require.Len(t, got, 4)

	ids := make([]string, 0, len(got))
	for _, o := range got {
		ids = append(ids, o.ID)
		assert.False(t, o.IsCustom)
	}
	assert.Equal(t, []string{"christmas", "valentines", "halloween", "birthday"}, ids)

	assert.Equal(t, "2026-12-25", got[0].DateString())
	assert.Equal(t, "2027-02-14", got[1].DateString(), "already passed this year")
	assert.Equal(t, "2026-10-31", got[2].DateString())
	assert.False(t, got[3].HasDate())
}

func TestPresetOccasions_SameDay(t *testing.T) {
	evening := time.Date(2026, time.December, 25, 22, 0, 0, 0, time.UTC)
	got := PresetOccasions(evening)
	assert.Equal(t, "2026-12-25", got[0].DateString())
}

func TestCatalog_Search(t *testing.T) {
	c := NewCatalog(spring)

	got := c.Search("DAY")
	require.Len(t, got, 2)
	assert.Equal(t, "valentines", got[0].ID)
	assert.Equal(t, "birthday", got[1].ID)

	assert.Len(t, c.Search(""), 4)
	assert.Empty(t, c.Search("easter"))
}

func TestCatalog_Select(t *testing.T) {
	c := NewCatalog(spring)

	_, ok := c.Selected()
	assert.False(t, ok)

	_, err := c.Select("easter")
	require.ErrorIs(t, err, ErrUnknownOccasion)

	o, err := c.Select("birthday")
	require.NoError(t, err)
	assert.Equal(t, "Birthday", o.Label)

	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "birthday", sel.ID)
	assert.Len(t, c.Occasions(), 4, "selection does not change the catalog")
}

func TestCatalog_CustomOccasion(t *testing.T) {
	c := NewCatalog(spring)

	staged, err := c.ProposeCustom("  Mom's Day ")
	require.NoError(t, err)
	assert.Equal(t, "moms-day", staged.ID)
	assert.Equal(t, "Mom's Day", staged.Label)
	assert.True(t, staged.IsCustom)
	assert.Len(t, c.Occasions(), 4, "nothing added before a date is picked")

	date := time.Date(2026, time.May, 10, 15, 0, 0, 0, time.UTC)
	o, err := c.CommitCustomDate(date)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-10", o.DateString())

	all := c.Occasions()
	require.Len(t, all, 5)
	assert.Equal(t, "moms-day", all[4].ID)

	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "moms-day", sel.ID)

	_, pending := c.Pending()
	assert.False(t, pending)
}

func TestCatalog_ProposeBlankIsNoop(t *testing.T) {
	c := NewCatalog(spring)

	o, err := c.ProposeCustom("   ")
	require.NoError(t, err)
	assert.Empty(t, o.ID)
	_, pending := c.Pending()
	assert.False(t, pending)
}

func TestCatalog_ProposeUnsluggable(t *testing.T) {
	c := NewCatalog(spring)

	_, err := c.ProposeCustom("!!!")
	assert.True(t, IsValidation(err))
	_, pending := c.Pending()
	assert.False(t, pending)
}

func TestCatalog_CommitPreconditions(t *testing.T) {
	c := NewCatalog(spring)

	_, err := c.CommitCustomDate(spring)
	require.ErrorIs(t, err, ErrNoPendingOccasion)

	_, err = c.ProposeCustom("Graduation")
	require.NoError(t, err)
	_, err = c.CommitCustomDate(time.Time{})
	assert.True(t, IsValidation(err))

	_, pending := c.Pending()
	assert.True(t, pending, "still waiting for a date")
	assert.Len(t, c.Occasions(), 4)
}

func TestCatalog_CustomIDsStayUnique(t *testing.T) {
	c := NewCatalog(spring)

	o, err := c.ProposeCustom("Christmas")
	require.NoError(t, err)
	assert.Equal(t, "christmas-2", o.ID)
	_, err = c.CommitCustomDate(spring)
	require.NoError(t, err)

	o, err = c.ProposeCustom("christmas!")
	require.NoError(t, err)
	assert.Equal(t, "christmas-3", o.ID)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Mom's Day":             "moms-day",
		"Mom’s Day":             "moms-day",
		"Back to School / Fall": "back-to-school-fall",
		"  Anniversary":         "anniversary",
		"Fête   des Pères":      "fete-des-peres",
		"New Year 2027":         "new-year-2027",
		"--":                    "",
	}
	for label, want := range tests {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, want, Slugify(label))
		})
	}
}

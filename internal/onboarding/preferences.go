package onboarding

import (
	"time"

	"giftgroup-onboarding/internal/models"
)

// Preferences is the working state of the preferences step: the occasion
// catalog, the gift ledger and the gift text being typed.
type Preferences struct {
	Catalog  *Catalog
	Ledger   *Ledger
	giftText string
}

func NewPreferences(now time.Time) *Preferences {
	return &Preferences{
		Catalog: NewCatalog(now),
		Ledger:  NewLedger(),
	}
}

func (p *Preferences) SetGiftText(text string) {
	p.giftText = text
}

func (p *Preferences) GiftText() string {
	return p.giftText
}

// AddGift appends the typed gift for the selected occasion. The gift text is
// cleared only when the entry was accepted.
func (p *Preferences) AddGift() (models.GiftEntry, error) {
	selected, _ := p.Catalog.Selected()
	e, err := p.Ledger.Append(selected, p.giftText)
	if err != nil {
		return models.GiftEntry{}, err
	}
	p.giftText = ""
	return e, nil
}

package handler

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"giftgroup-onboarding/internal/models"
)

func (h *OnboardingHandler) prompt(s *session) string {
	switch s.machine.Step() {
	case models.StepJoin:
		return fmt.Sprintf("🎁 *Join %s*\nEnter the 4-character group code to join (e.g. ABCD).", h.config.GroupName)
	case models.StepProfile:
		var b strings.Builder
		b.WriteString("👤 *Create your profile*\n")
		b.WriteString("Choose a name and avatar for your gifting profile.\n")
		b.WriteString("• *name <your name>*\n• *avatar <number>*\n• *next* to continue, *back* to go back\n\n")
		b.WriteString(avatarList(h.config.Avatars))
		if s.name != "" || s.avatar != "" {
			fmt.Fprintf(&b, "\n\nSo far: %s, %s", orDash(s.name), orDash(avatarLabel(s.avatar)))
		}
		return b.String()
	case models.StepPreferences:
		count := 0
		if s.prefs != nil {
			count = s.prefs.Ledger.Len()
		}
		return "🎁 *Gift preferences*\n" +
			"Add gifts you'd like to receive for different occasions.\n" +
			"• *occasions* or *search <text>* to browse\n" +
			"• *occasion <number>* to pick one\n" +
			"• *custom <name>* then *date YYYY-MM-DD* for your own\n" +
			"• *gift <name>* to add a gift, *remove <number>* to drop one\n" +
			"• *list* to see your gifts\n" +
			"• *next* to continue, *back* to go back\n\n" +
			fmt.Sprintf("%d gifts added so far.", count)
	case models.StepLinking:
		return "🛒 *Connect with Amazon*\n" +
			"Link your Amazon account to enable one-click purchasing.\n" +
			"Reply *connect*, *skip* for now, or *back*."
	default:
		record, _ := s.machine.Summary()
		return summary(record)
	}
}

func summary(r models.UserRecord) string {
	amazon := "Not connected"
	if r.AmazonConnected {
		amazon = "Connected"
	}
	return fmt.Sprintf("🎉 *Welcome to the group!*\n"+
		"You're all set to start gifting with your friends.\n\n"+
		"👤 Your profile: %s\n"+
		"🔑 Group code: %s\n"+
		"🎁 Gift preferences: %d items added\n"+
		"🛒 Amazon integration: %s",
		r.Name, r.GroupCode, len(r.Preferences), amazon)
}

func avatarList(avatars []string) string {
	lines := make([]string, 0, len(avatars))
	for i, a := range avatars {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, avatarLabel(a)))
	}
	return strings.Join(lines, "\n")
}

// avatarLabel shows the seed of an avatar URL, or the value itself
func avatarLabel(avatar string) string {
	u, err := url.Parse(avatar)
	if err != nil {
		return avatar
	}
	if seed := u.Query().Get("seed"); seed != "" {
		return seed
	}
	return avatar
}

func occasionLabel(o models.Occasion) string {
	if !o.HasDate() {
		return o.Label
	}
	return fmt.Sprintf("%s (%s)", o.Label, o.Date.Format("Jan 2"))
}

// occasionList numbers the shown occasions by their place in the catalog,
// so the numbers work with "occasion <number>"
func occasionList(catalog, shown []models.Occasion) string {
	lines := make([]string, 0, len(shown))
	for _, o := range shown {
		n := slices.IndexFunc(catalog, func(c models.Occasion) bool { return c.ID == o.ID }) + 1
		lines = append(lines, fmt.Sprintf("%d. %s", n, occasionLabel(o)))
	}
	return strings.Join(lines, "\n")
}

func giftList(entries []models.GiftEntry) string {
	if len(entries) == 0 {
		return "No gifts added yet. Start by selecting an occasion and adding gifts!"
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Your gifts:")
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, occasionLabel(e.Occasion), e.Gift))
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

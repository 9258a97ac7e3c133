package models

import (
	"slices"
	"time"
)

// Step is a stage of the onboarding flow
type Step string

const (
	StepJoin        Step = "join"
	StepProfile     Step = "profile"
	StepPreferences Step = "preferences"
	StepLinking     Step = "linking"
	StepComplete    Step = "complete"
)

// UserRecord accumulates everything a user enters while onboarding
type UserRecord struct {
	GroupCode       string   `json:"group_code"`
	Name            string   `json:"name"`
	Avatar          string   `json:"avatar"`
	Preferences     []string `json:"preferences"`
	AmazonConnected bool     `json:"amazon_connected"`
}

// Clone returns a copy that shares no memory with r.
func (r UserRecord) Clone() UserRecord {
	r.Preferences = slices.Clone(r.Preferences)
	if r.Preferences == nil {
		r.Preferences = []string{}
	}
	return r
}

// Member is a user who finished onboarding
type Member struct {
	ID       string     `json:"id"`
	Phone    string     `json:"phone"`
	Record   UserRecord `json:"record"`
	JoinedAt time.Time  `json:"joined_at"`
}

package bridge

import (
	"fmt"
	"strings"
)

// InvitationStatus is shared by invitations and sponsorship offers.
type InvitationStatus string

const (
	StatusPending  InvitationStatus = "PENDING"
	StatusAccepted InvitationStatus = "ACCEPTED"
	StatusDeclined InvitationStatus = "DECLINED"
)

// ParseInvitationStatus accepts the status names and the verbs the clients send.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "accept", "accepted":
		return StatusAccepted, nil
	case "decline", "declined", "reject", "rejected":
		return StatusDeclined, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// CanTransition only allows PENDING to move to ACCEPTED or DECLINED.
func (s InvitationStatus) CanTransition(to InvitationStatus) bool {
	return s == StatusPending && (to == StatusAccepted || to == StatusDeclined)
}

// IsFinal reports whether the status can no longer change.
func (s InvitationStatus) IsFinal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

type PostType string

const (
	PostDailyLog    PostType = "DAILYLOG"
	PostEvent       PostType = "EVENT"
	PostSponsorship PostType = "SPONSORSHIP"
	PostCoaching    PostType = "COACHING"
	PostFresher     PostType = "FRESHER"
	PostBeginner    PostType = "BEGINNER"
)

var PostTypes = []PostType{PostDailyLog, PostEvent, PostSponsorship, PostCoaching, PostFresher, PostBeginner}

func ParsePostType(s string) (PostType, error) {
	want := PostType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range PostTypes {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid post type %q", s)
}

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case CurrencyINR, CurrencyUSD, CurrencyEUR:
		return c, nil
	case "":
		return CurrencyINR, nil
	}
	return "", fmt.Errorf("invalid currency %q", s)
}

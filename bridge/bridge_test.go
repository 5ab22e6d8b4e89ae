package bridge

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"athlete":  RoleAthlete,
		"ATHELETE": RoleAthlete,
		" coach ":  RoleCoach,
		"Sponsor":  RoleSponsor,
		"admin":    RoleAdmin,
		"":         RoleUser,
		"referee":  RoleUser,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			if got := ParseRole(in); got != want {
				t.Errorf("ParseRole(%q) = %v, want %v", in, got, want)
			}
		})
	}
}

func TestCanPostAndLike(t *testing.T) {
	is := is.New(t)

	is.True(CanPost(RoleAthlete))
	is.True(CanPost(RoleCoach))
	is.True(CanPost(RoleSponsor))
	is.True(!CanPost(RoleUser))
	is.True(!CanPost(RoleAdmin))

	athlete := &User{ID: 1, Role: RoleAthlete}
	coach := &User{ID: 2, Role: RoleCoach}
	own := &Post{ID: 10, UserID: 1}
	coachPost := &Post{ID: 11, UserID: 2}

	is.True(!CanLike(athlete, own))
	is.True(CanLike(athlete, coachPost))
	is.True(CanLike(coach, coachPost)) // coaches may like their own posts
	is.True(!CanLike(nil, own))
}

func TestInvitationStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to InvitationStatus
		ok       bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusPending, false},
		{StatusAccepted, StatusDeclined, false},
		{StatusDeclined, StatusAccepted, false},
		{StatusAccepted, StatusAccepted, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.ok {
				t.Errorf("CanTransition = %v, want %v", got, tc.ok)
			}
		})
	}
}

func TestParseInvitationStatus(t *testing.T) {
	is := is.New(t)

	for _, in := range []string{"accept", "ACCEPTED", " Accepted "} {
		s, err := ParseInvitationStatus(in)
		is.NoErr(err)
		is.Equal(s, StatusAccepted)
	}
	for _, in := range []string{"decline", "DECLINED", "reject", "rejected"} {
		s, err := ParseInvitationStatus(in)
		is.NoErr(err)
		is.Equal(s, StatusDeclined)
	}
	_, err := ParseInvitationStatus("maybe")
	is.True(err != nil)
}

func TestParsePostTypeAndCurrency(t *testing.T) {
	is := is.New(t)

	pt, err := ParsePostType("event")
	is.NoErr(err)
	is.Equal(pt, PostEvent)
	_, err = ParsePostType("party")
	is.True(err != nil)

	c, err := ParseCurrency("usd")
	is.NoErr(err)
	is.Equal(c, CurrencyUSD)
	c, err = ParseCurrency("")
	is.NoErr(err)
	is.Equal(c, CurrencyINR)
	_, err = ParseCurrency("btc")
	is.True(err != nil)
}

func TestSponsorshipIsActive(t *testing.T) {
	is := is.New(t)
	today := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	sameDay := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	is.True((&Sponsorship{Status: StatusAccepted}).IsActive(today))
	is.True((&Sponsorship{Status: StatusAccepted, ContractEndDate: &sameDay}).IsActive(today))
	is.True(!(&Sponsorship{Status: StatusAccepted, ContractEndDate: &yesterday}).IsActive(today))
	is.True(!(&Sponsorship{Status: StatusPending}).IsActive(today))
}

func TestUserFirstName(t *testing.T) {
	is := is.New(t)
	is.Equal((&User{FullName: "Benji Athlete"}).FirstName(), "Benji")
	is.Equal((&User{FullName: "Solo"}).FirstName(), "Solo")
}

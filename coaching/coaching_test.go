package coaching

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/internal/testutil"
	"github.com/hackcelestial/sports-bridge/notify"
)

func TestAssignAndMyCoach(t *testing.T) {
	s := testutil.NewStore(t)
	svc := NewService(s, notify.NewService(s))
	ctx := context.Background()
	athlete := testutil.AddUser(t, s, "Benji", bridge.RoleAthlete, "+911111111111")
	first := testutil.AddUser(t, s, "Akshay", bridge.RoleCoach, "+912222222222")
	second := testutil.AddUser(t, s, "Meera", bridge.RoleCoach, "+912222222223")

	testutil.AssignCoach(t, s, athlete.ID, first.ID)
	testutil.AssignCoach(t, s, athlete.ID, second.ID)

	mine, httpErr := svc.MyCoach(ctx, athlete)
	require.Nil(t, httpErr)
	require.NotNil(t, mine.Current)
	assert.Equal(t, "Meera", mine.Current.Coach.Name)
	require.Len(t, mine.Past, 1)
	assert.Equal(t, "Akshay", mine.Past[0].Coach.Name)
	assert.False(t, mine.Past[0].Active)
	assert.NotNil(t, mine.Past[0].EndDate)

	athletes, httpErr := svc.MyAthletes(ctx, second)
	require.Nil(t, httpErr)
	require.Len(t, athletes, 1)
	assert.Equal(t, "Benji", athletes[0].Athlete.Name)

	athletes, httpErr = svc.MyAthletes(ctx, first)
	require.Nil(t, httpErr)
	assert.Empty(t, athletes)

	_, httpErr = svc.MyCoach(ctx, first)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestEnd(t *testing.T) {
	s := testutil.NewStore(t)
	svc := NewService(s, notify.NewService(s))
	ctx := context.Background()
	athlete := testutil.AddUser(t, s, "Benji", bridge.RoleAthlete, "+911111111111")
	coach := testutil.AddUser(t, s, "Akshay", bridge.RoleCoach, "+912222222222")

	httpErr := svc.End(ctx, athlete)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	testutil.AssignCoach(t, s, athlete.ID, coach.ID)
	require.Nil(t, svc.End(ctx, athlete))

	current, err := svc.Current(ctx, athlete.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	n, err := s.Notifications().UnreadCount(ctx, coach.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCoachProfile(t *testing.T) {
	s := testutil.NewStore(t)
	svc := NewService(s, nil)
	ctx := context.Background()
	athlete := testutil.AddUser(t, s, "Benji", bridge.RoleAthlete, "+911111111111")
	coach := testutil.AddUser(t, s, "Akshay", bridge.RoleCoach, "+912222222222")
	require.NoError(t, s.Profiles().SaveCoach(ctx, &bridge.CoachProfile{UserID: coach.ID, Specialization: "Sprint", ExperienceYears: 8}))
	testutil.AssignCoach(t, s, athlete.ID, coach.ID)

	view, httpErr := svc.CoachProfile(ctx, coach.ID)
	require.Nil(t, httpErr)
	assert.Equal(t, "Sprint", view.Profile.Specialization)
	assert.Equal(t, 1, view.AthleteCount)

	tests := []struct {
		name string
		id   int64
	}{
		{"not a coach", athlete.ID},
		{"missing", 404},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, httpErr := svc.CoachProfile(ctx, tc.id)
			require.NotNil(t, httpErr)
			assert.Equal(t, http.StatusNotFound, httpErr.Code)
		})
	}
}

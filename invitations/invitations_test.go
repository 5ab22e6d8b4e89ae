package invitations

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/coaching"
	"github.com/hackcelestial/sports-bridge/internal/testutil"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store/sqlstore"
)

type fixture struct {
	store    *sqlstore.Store
	svc      *Service
	coaching *coaching.Service
	athlete  *bridge.User
	coach    *bridge.User
	other    *bridge.User
	post     *bridge.Post
}

func newFixture(t *testing.T) *fixture {
	s := testutil.NewStore(t)
	n := notify.NewService(s)
	c := coaching.NewService(s, n)
	f := &fixture{store: s, svc: NewService(s, c, n), coaching: c}
	f.athlete = testutil.AddUser(t, s, "Benji Athlete", bridge.RoleAthlete, "+911111111111")
	f.coach = testutil.AddUser(t, s, "Akshay Coach", bridge.RoleCoach, "+912222222222")
	f.other = testutil.AddUser(t, s, "Meera Coach", bridge.RoleCoach, "+912222222223")
	f.post = testutil.AddPost(t, s, f.athlete, "Looking for a coach", bridge.PostCoaching)
	return f
}

func TestSendGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, httpErr := f.svc.Send(ctx, f.coach, f.post.ID, " I can help ")
	require.Nil(t, httpErr)

	tests := []struct {
		name   string
		sender *bridge.User
		postID int64
		code   int
	}{
		{"missing post id", f.coach, 0, http.StatusBadRequest},
		{"unknown post", f.coach, 999, http.StatusNotFound},
		{"own post", f.athlete, f.post.ID, http.StatusBadRequest},
		{"duplicate", f.coach, f.post.ID, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, httpErr := f.svc.Send(ctx, tc.sender, tc.postID, "")
			require.NotNil(t, httpErr)
			assert.Equal(t, tc.code, httpErr.Code)
		})
	}

	received, httpErr := f.svc.Received(ctx, f.athlete)
	require.Nil(t, httpErr)
	require.Len(t, received, 1)
	assert.Equal(t, "I can help", received[0].Message)
	assert.Equal(t, "Akshay Coach", received[0].Sender.Name)
	assert.Equal(t, "Benji Athlete", received[0].Receiver.Name)
	assert.Equal(t, "Looking for a coach", received[0].Post.Title)

	n, err := f.store.Notifications().UnreadCount(ctx, f.athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRespondAcceptAssignsCoach(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	ctx := context.Background()

	inv, httpErr := f.svc.Send(ctx, f.coach, f.post.ID, "")
	is.True(httpErr == nil)

	_, httpErr = f.svc.Respond(ctx, f.athlete, inv.ID, "maybe")
	is.Equal(httpErr.Code, http.StatusBadRequest)
	_, httpErr = f.svc.Respond(ctx, f.athlete, inv.ID, "pending")
	is.Equal(httpErr.Code, http.StatusBadRequest)
	_, httpErr = f.svc.Respond(ctx, f.other, inv.ID, "accept")
	is.Equal(httpErr.Code, http.StatusForbidden)
	_, httpErr = f.svc.Respond(ctx, f.athlete, 999, "accept")
	is.Equal(httpErr.Code, http.StatusNotFound)

	res, httpErr := f.svc.Respond(ctx, f.athlete, inv.ID, "ACCEPTED")
	is.True(httpErr == nil)
	is.True(res.Success)
	is.True(res.RedirectToProfile)
	is.Equal(res.SenderRole, "coach")
	is.Equal(res.SenderID, f.coach.ID)
	is.True(res.RoomID != 0)

	room, err := f.store.ChatRooms().Between(ctx, f.coach.ID, f.athlete.ID)
	is.NoErr(err)
	is.Equal(room.ID, res.RoomID)

	current, err := f.coaching.Current(ctx, f.athlete.ID)
	is.NoErr(err)
	is.Equal(current.CoachID, f.coach.ID)

	stored, err := f.store.Invitations().Get(ctx, inv.ID)
	is.NoErr(err)
	is.Equal(stored.Status, bridge.StatusAccepted)
	is.True(stored.RespondedAt != nil)

	_, httpErr = f.svc.Respond(ctx, f.athlete, inv.ID, "decline")
	is.Equal(httpErr.Code, http.StatusConflict)
}

func TestAcceptFailureLeavesInvitationPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, httpErr := f.svc.Send(ctx, f.coach, f.post.ID, "")
	require.Nil(t, httpErr)

	_, err := f.store.DB().ExecContext(ctx, `DROP TABLE chat_messages`)
	require.NoError(t, err)
	_, err = f.store.DB().ExecContext(ctx, `DROP TABLE chat_rooms`)
	require.NoError(t, err)

	_, httpErr = f.svc.Respond(ctx, f.athlete, inv.ID, "accept")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)

	stored, err := f.store.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusPending, stored.Status)
	current, err := f.coaching.Current(ctx, f.athlete.ID)
	require.NoError(t, err)
	assert.Nil(t, current, "no relationship without the accepted invitation")

	require.NoError(t, f.store.Migrate(ctx))
	res, httpErr := f.svc.Respond(ctx, f.athlete, inv.ID, "accept")
	require.Nil(t, httpErr, "retry succeeds")
	assert.Equal(t, bridge.StatusAccepted, res.Status)
}

func TestRespondRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.AssignCoach(t, f.store, f.athlete.ID, f.coach.ID)

	inv, httpErr := f.svc.Send(ctx, f.other, f.post.ID, "")
	require.Nil(t, httpErr)

	res, httpErr := f.svc.Respond(ctx, f.athlete, inv.ID, "accept")
	require.Nil(t, httpErr)
	assert.True(t, res.RequiresConfirmation)
	assert.False(t, res.Success)
	require.NotNil(t, res.CurrentCoach)
	assert.Equal(t, f.coach.ID, res.CurrentCoach.ID)

	pending, httpErr := f.svc.Pending(ctx, f.athlete)
	require.Nil(t, httpErr)
	assert.Len(t, pending, 1, "invitation stays pending")

	res, httpErr = f.svc.Confirm(ctx, f.athlete, inv.ID, true)
	require.Nil(t, httpErr)
	assert.True(t, res.Success)
	assert.Equal(t, bridge.StatusAccepted, res.Status)

	current, err := f.coaching.Current(ctx, f.athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, current.CoachID)

	_, httpErr = f.svc.Confirm(ctx, f.athlete, inv.ID, true)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestConfirmWithoutForceDeclines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.AssignCoach(t, f.store, f.athlete.ID, f.coach.ID)
	inv, httpErr := f.svc.Send(ctx, f.other, f.post.ID, "")
	require.Nil(t, httpErr)

	res, httpErr := f.svc.Confirm(ctx, f.athlete, inv.ID, false)
	require.Nil(t, httpErr)
	assert.Equal(t, bridge.StatusDeclined, res.Status)
	assert.False(t, res.RedirectToProfile)

	current, err := f.coaching.Current(ctx, f.athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, f.coach.ID, current.CoachID)
}

func TestAcceptSameCoachNeedsNoConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.AssignCoach(t, f.store, f.athlete.ID, f.coach.ID)
	inv, httpErr := f.svc.Send(ctx, f.coach, f.post.ID, "")
	require.Nil(t, httpErr)

	res, httpErr := f.svc.Respond(ctx, f.athlete, inv.ID, "accept")
	require.Nil(t, httpErr)
	assert.False(t, res.RequiresConfirmation)
	assert.True(t, res.Success)
}

func TestSentAndCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := testutil.AddPost(t, f.store, f.athlete, "Event", bridge.PostEvent)

	old, httpErr := f.svc.Send(ctx, f.coach, f.post.ID, "")
	require.Nil(t, httpErr)
	_, httpErr = f.svc.Send(ctx, f.coach, second.ID, "")
	require.Nil(t, httpErr)

	sent, httpErr := f.svc.Sent(ctx, f.coach)
	require.Nil(t, httpErr)
	require.Len(t, sent, 2)
	assert.Equal(t, "Event", sent[0].Post.Title, "newest first")

	twoDaysAgo := time.Now().UTC().Add(-48 * time.Hour)
	f.svc.now = func() time.Time { return twoDaysAgo }
	_, httpErr = f.svc.Respond(ctx, f.athlete, old.ID, "decline")
	require.Nil(t, httpErr)

	n, err := f.svc.Cleanup(ctx, time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sent, httpErr = f.svc.Sent(ctx, f.coach)
	require.Nil(t, httpErr)
	require.Len(t, sent, 1)
	assert.Equal(t, bridge.StatusPending, sent[0].Status)
}

func TestJanitorNext(t *testing.T) {
	j := NewJanitor(nil, DefaultRetention)
	loc := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before two", time.Date(2024, 3, 1, 1, 30, 0, 0, loc), time.Date(2024, 3, 1, 2, 0, 0, 0, loc)},
		{"exactly two", time.Date(2024, 3, 1, 2, 0, 0, 0, loc), time.Date(2024, 3, 2, 2, 0, 0, 0, loc)},
		{"afternoon", time.Date(2024, 3, 31, 15, 0, 0, 0, loc), time.Date(2024, 4, 1, 2, 0, 0, 0, loc)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(j.next(tc.now)))
		})
	}
}

func TestJanitorStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	j := NewJanitor(f.svc, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

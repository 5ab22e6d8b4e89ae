package sponsorship

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/internal/testutil"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store/sqlstore"
)

type fixture struct {
	store   *sqlstore.Store
	svc     *Service
	sponsor *bridge.User
	athlete *bridge.User
	coach   *bridge.User
}

func newFixture(t *testing.T) *fixture {
	s := testutil.NewStore(t)
	f := &fixture{store: s, svc: NewService(s, notify.NewService(s))}
	f.svc.now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }
	f.sponsor = testutil.AddUser(t, s, "Acme Sponsor", bridge.RoleSponsor, "+913333333333")
	f.athlete = testutil.AddUser(t, s, "Benji Athlete", bridge.RoleAthlete, "+911111111111")
	f.coach = testutil.AddUser(t, s, "Akshay Coach", bridge.RoleCoach, "+912222222222")
	ctx := context.Background()
	require.NoError(t, s.Profiles().SaveSponsor(ctx, &bridge.SponsorProfile{UserID: f.sponsor.ID, CompanyName: "Acme"}))
	require.NoError(t, s.Profiles().SaveAthlete(ctx, &bridge.AthleteProfile{UserID: f.athlete.ID, State: "Kerala"}))
	return f
}

func TestOfferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		user *bridge.User
		req  OfferRequest
		code int
	}{
		{"not a sponsor", f.coach, OfferRequest{AthleteID: f.athlete.ID, Amount: 10}, http.StatusForbidden},
		{"unknown athlete", f.sponsor, OfferRequest{AthleteID: 999, Amount: 10}, http.StatusNotFound},
		{"not an athlete", f.sponsor, OfferRequest{AthleteID: f.coach.ID, Amount: 10}, http.StatusBadRequest},
		{"zero amount", f.sponsor, OfferRequest{AthleteID: f.athlete.ID}, http.StatusBadRequest},
		{"bad currency", f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 10, Currency: "GBP"}, http.StatusBadRequest},
		{"bad date", f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 10, ContractStartDate: "June"}, http.StatusBadRequest},
		{"end before start", f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 10,
			ContractStartDate: "2024-06-10", ContractEndDate: "2024-06-01"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, httpErr := f.svc.Offer(ctx, tc.user, tc.req)
			require.NotNil(t, httpErr)
			assert.Equal(t, tc.code, httpErr.Code)
		})
	}
}

func TestOfferRespondAndOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	running, httpErr := f.svc.Offer(ctx, f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 5000, Terms: "Wear the logo"})
	require.Nil(t, httpErr)
	assert.Equal(t, bridge.CurrencyINR, running.Currency)
	assert.Equal(t, bridge.StatusPending, running.Status)
	assert.Equal(t, "Acme", running.Sponsor.CompanyName)
	assert.Equal(t, "Kerala", running.Athlete.State)

	expired, httpErr := f.svc.Offer(ctx, f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 100, Currency: "usd",
		ContractStartDate: "2024-01-01", ContractEndDate: "2024-05-31"})
	require.Nil(t, httpErr)

	endsToday, httpErr := f.svc.Offer(ctx, f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 100, ContractEndDate: "2024-06-15"})
	require.Nil(t, httpErr)

	_, httpErr = f.svc.Respond(ctx, f.coach, running.ID, "accept")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	_, httpErr = f.svc.Respond(ctx, f.athlete, running.ID, "later")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	for _, id := range []int64{running.ID, expired.ID, endsToday.ID} {
		v, httpErr := f.svc.Respond(ctx, f.athlete, id, "ACCEPTED")
		require.Nil(t, httpErr)
		assert.NotNil(t, v.RespondedAt)
	}

	_, httpErr = f.svc.Respond(ctx, f.athlete, running.ID, "decline")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)

	overview, httpErr := f.svc.ForAthlete(ctx, f.athlete)
	require.Nil(t, httpErr)
	assert.Equal(t, 3, overview.TotalCount)
	assert.Equal(t, 2, overview.ActiveCount, "expired contract is not active")

	sponsored, httpErr := f.svc.ForSponsor(ctx, f.sponsor)
	require.Nil(t, httpErr)
	assert.Len(t, sponsored, 3)

	unread, err := f.store.Notifications().UnreadCount(ctx, f.sponsor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.AddUser(t, f.store, "Root", bridge.RoleAdmin, "+919999999999")
	v, httpErr := f.svc.Offer(ctx, f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 10})
	require.Nil(t, httpErr)

	for _, u := range []*bridge.User{f.sponsor, f.athlete, admin} {
		_, httpErr := f.svc.Get(ctx, u, v.ID)
		assert.Nil(t, httpErr, u.FullName)
	}
	_, httpErr = f.svc.Get(ctx, f.coach, v.ID)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	_, httpErr = f.svc.Get(ctx, admin, 999)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, httpErr := f.svc.Offer(ctx, f.sponsor, OfferRequest{AthleteID: f.athlete.ID, Amount: 2500,
		ContractStartDate: "2024-07-01", ContractEndDate: "2024-12-31"})
	require.Nil(t, httpErr)

	var buf bytes.Buffer
	require.Nil(t, f.svc.Export(ctx, f.sponsor, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Athlete", rows[0][1])
	assert.Equal(t, "Benji Athlete", rows[1][1])
	assert.Equal(t, "2500", rows[1][4])
	assert.Equal(t, "2024-12-31", rows[1][8])

	httpErr = f.svc.Export(ctx, f.athlete, &buf)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

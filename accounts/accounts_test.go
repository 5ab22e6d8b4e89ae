package accounts

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/backends"
	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/internal/jwt"
	"github.com/hackcelestial/sports-bridge/internal/secure"
	"github.com/hackcelestial/sports-bridge/internal/testutil"
	"github.com/hackcelestial/sports-bridge/otp"
	"github.com/hackcelestial/sports-bridge/store/sqlstore"
	"github.com/hackcelestial/sports-bridge/uploads"
)

type lastCode struct {
	codes map[string]string
}

func (l *lastCode) Send(_ context.Context, msg otp.Message) error {
	l.codes[msg.Phone] = msg.Code
	return nil
}

type fixture struct {
	svc   *Service
	store *sqlstore.Store
	codes *lastCode
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewStore(t)
	kv := &backends.InMemoryBackend{}
	require.NoError(t, kv.Init(nil))
	codes := &lastCode{codes: map[string]string{}}
	cipher, err := secure.NewCipher("", "pepper")
	require.NoError(t, err)
	tokens, err := jwt.NewIssuer("secret", 0)
	require.NoError(t, err)
	up := uploads.NewService(uploads.NewLocalStorage(t.TempDir(), "/uploads/"), 0)
	return &fixture{
		svc:   NewService(s, otp.NewService(kv, codes), cipher, tokens, up),
		store: s,
		codes: codes,
	}
}

func (f *fixture) signup(t *testing.T, req SignupRequest) *TokenResponse {
	t.Helper()
	started, httpErr := f.svc.Signup(context.Background(), req, "127.0.0.1")
	require.Nil(t, httpErr)
	assert.Equal(t, "OTP_SENT", started.Status)
	tok, httpErr := f.svc.Verify(context.Background(), req.Phone, f.codes.codes[req.Phone])
	require.Nil(t, httpErr)
	return tok
}

func TestSignupVerifyCreatesUserAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok := f.signup(t, SignupRequest{FullName: "Benji Athlete", Role: "athlete", Phone: "+911111111111", Aadhaar: "123412341234"})
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, bridge.RoleAthlete, tok.User.Role)

	u, err := f.svc.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.Equal(t, "Benji Athlete", u.FullName)
	assert.NotEmpty(t, u.AadhaarEncrypted)

	_, err = f.store.Profiles().Athlete(ctx, u.ID)
	assert.NoError(t, err, "athlete profile created on verify")
}

func TestSignupDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok := f.signup(t, SignupRequest{Role: "wizard", Phone: "+912222222222", Aadhaar: "222222222222"})
	assert.Equal(t, "User", tok.User.Name)
	assert.Equal(t, bridge.RoleUser, tok.User.Role)

	tests := []struct {
		name string
		req  SignupRequest
		code int
	}{
		{"bad aadhaar", SignupRequest{Phone: "+913333333333", Aadhaar: "1234"}, http.StatusBadRequest},
		{"bad phone", SignupRequest{Phone: "12", Aadhaar: "333333333333"}, http.StatusBadRequest},
		{"aadhaar on other phone", SignupRequest{Phone: "+913333333333", Aadhaar: "222222222222"}, http.StatusConflict},
		{"phone on other aadhaar", SignupRequest{Phone: "+912222222222", Aadhaar: "333333333333"}, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, httpErr := f.svc.Signup(ctx, tc.req, "127.0.0.1")
			require.NotNil(t, httpErr)
			assert.Equal(t, tc.code, httpErr.Code)
		})
	}
}

func TestVerifyErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, httpErr := f.svc.Verify(ctx, "+911111111111", "000000")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	_, httpErr = f.svc.Signup(ctx, SignupRequest{Phone: "+911111111111", Aadhaar: "123412341234"}, "ip")
	require.Nil(t, httpErr)
	wrong := "000000"
	if f.codes.codes["+911111111111"] == wrong {
		wrong = "111111"
	}
	_, httpErr = f.svc.Verify(ctx, "+911111111111", wrong)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestSignupRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := SignupRequest{Phone: "+911111111111", Aadhaar: "123412341234"}

	for i := 0; i < otp.MaxPerPhone; i++ {
		_, httpErr := f.svc.Signup(ctx, req, "ip")
		require.Nil(t, httpErr)
	}
	_, httpErr := f.svc.Signup(ctx, req, "ip")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, SignupRequest{FullName: "Akshay Coach", Role: "COACH", Phone: "+912222222222", Aadhaar: "222222222222"})

	_, httpErr := f.svc.Login(ctx, LoginRequest{Phone: "+912222222222", Aadhaar: "999999999999"}, "ip")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	_, httpErr = f.svc.Login(ctx, LoginRequest{Phone: "+919999999999", Aadhaar: "222222222222"}, "ip")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	started, httpErr := f.svc.Login(ctx, LoginRequest{Phone: "+912222222222", Aadhaar: "222222222222"}, "ip")
	require.Nil(t, httpErr)
	assert.NotEmpty(t, started.TxID)
	assert.Equal(t, f.codes.codes["+912222222222"], f.svc.PeekOTP(ctx, "+912222222222"))

	tok, httpErr := f.svc.Verify(ctx, "+912222222222", f.codes.codes["+912222222222"])
	require.Nil(t, httpErr)
	assert.Equal(t, "Akshay Coach", tok.User.Name)
}

func TestLoginUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cipher, _ := secure.NewCipher("", "pepper")
	u := testutil.AddUser(t, f.store, "Pending", bridge.RoleAthlete, "+914444444444")
	u.Verified = false
	u.AadhaarHash = cipher.AadhaarHash("444444444444")
	require.NoError(t, f.store.Users().Update(ctx, u))

	_, httpErr := f.svc.Login(ctx, LoginRequest{Phone: "+914444444444", Aadhaar: "444444444444"}, "ip")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestPasswordLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.signup(t, SignupRequest{FullName: "Benji", Role: "ATHLETE", Phone: "+919876543210", Aadhaar: "123412341234"})
	u, err := f.svc.Authenticate(ctx, tok.Token)
	require.NoError(t, err)

	httpErr := f.svc.SetPassword(ctx, u, "123")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	require.Nil(t, f.svc.SetPassword(ctx, u, "secret1"))

	tests := []struct {
		name     string
		phone    string
		password string
		code     int
	}{
		{"exact", "+919876543210", "secret1", 0},
		{"bare ten digits", "9876543210", "secret1", 0},
		{"wrong password", "+919876543210", "nope", http.StatusUnauthorized},
		{"unknown", "+911234567890", "secret1", http.StatusNotFound},
		{"missing", "", "secret1", http.StatusBadRequest},
		{"malformed", "98-76", "secret1", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, httpErr := f.svc.PasswordLogin(ctx, tc.phone, tc.password)
			if tc.code == 0 {
				require.Nil(t, httpErr)
				assert.NotEmpty(t, res.Token)
				return
			}
			require.NotNil(t, httpErr)
			assert.Equal(t, tc.code, httpErr.Code)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.signup(t, SignupRequest{FullName: "Benji", Role: "ATHLETE", Phone: "+911111111111", Aadhaar: "123412341234"})
	u, err := f.svc.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	require.NoError(t, f.store.Sports().Create(ctx, &bridge.Sport{Name: "Athletics"}))

	name, state, sport := "Benji Runner", "Kerala", "athletics"
	height := 172.5
	p, httpErr := f.svc.UpdateProfile(ctx, u, ProfilePatch{FullName: &name, State: &state, Height: &height, Sport: &sport})
	require.Nil(t, httpErr)
	assert.Equal(t, "Benji Runner", p.User.FullName)
	require.NotNil(t, p.Athlete)
	assert.Equal(t, "Kerala", p.Athlete.State)
	assert.Equal(t, 172.5, p.Athlete.Height)
	require.NotNil(t, p.Sport)
	assert.Equal(t, "Athletics", p.Sport.Name)

	unknown := "quidditch"
	_, httpErr = f.svc.UpdateProfile(ctx, u, ProfilePatch{Sport: &unknown})
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	empty := " "
	_, httpErr = f.svc.UpdateProfile(ctx, u, ProfilePatch{FullName: &empty})
	require.NotNil(t, httpErr)

	public, httpErr := f.svc.PublicProfile(ctx, u.ID)
	require.Nil(t, httpErr)
	assert.Empty(t, public.User.Phone)

	_, httpErr = f.svc.Profile(ctx, 999)
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestSetAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.AddUser(t, f.store, "Benji", bridge.RoleAthlete, "+911111111111")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	url, httpErr := f.svc.SetAvatar(ctx, u, bytes.NewReader(png))
	require.Nil(t, httpErr)

	again, err := f.store.Users().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, again.ProfilePicURL)

	_, httpErr = f.svc.SetAvatar(ctx, u, bytes.NewReader([]byte("plain text")))
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestAddSport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp, httpErr := f.svc.AddSport(ctx, "  Kabaddi ", "contact team sport")
	require.Nil(t, httpErr)
	assert.Equal(t, "Kabaddi", sp.Name)

	_, httpErr = f.svc.AddSport(ctx, "kabaddi", "")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)

	_, httpErr = f.svc.AddSport(ctx, " ", "")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	sports, httpErr := f.svc.Sports(ctx)
	require.Nil(t, httpErr)
	assert.Len(t, sports, 1)
}

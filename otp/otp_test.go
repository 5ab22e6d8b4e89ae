package otp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/hackcelestial/sports-bridge/backends"
)

type captureSender struct {
	sent []Message
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *captureSender) {
	t.Helper()
	kv := &backends.InMemoryBackend{}
	require.NoError(t, kv.Init(nil))
	sender := &captureSender{}
	return NewService(kv, sender), sender
}

func TestStartAndVerify(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Start(ctx, "+911111111111", "10.0.0.1", Payload{"purpose": "signup", "fullName": "Benji"})
	require.NoError(t, err)
	assert.Len(t, tx, 36)
	require.Len(t, sender.sent, 1)
	code := sender.sent[0].Code
	assert.Regexp(t, `^\d{6}$`, code)
	assert.Equal(t, code, svc.Peek(ctx, "+911111111111"))

	_, err = svc.Verify(ctx, "+911111111111", "not-it")
	assert.ErrorIs(t, err, ErrInvalid)

	payload, err := svc.Verify(ctx, "+911111111111", code)
	require.NoError(t, err)
	assert.Equal(t, "Benji", payload["fullName"])

	_, err = svc.Verify(ctx, "+911111111111", code)
	assert.ErrorIs(t, err, ErrNotFound, "codes are single use")
	assert.Empty(t, svc.Peek(ctx, "+911111111111"))
}

func TestVerifyExpired(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "+911111111111", "ip", nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(TTL + time.Second) }
	assert.Empty(t, svc.Peek(ctx, "+911111111111"))

	svc.now = time.Now
	_, err = svc.Start(ctx, "+911111111111", "ip", nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(TTL + time.Second) }
	_, err = svc.Verify(ctx, "+911111111111", sender.sent[1].Code)
	assert.ErrorIs(t, err, ErrExpired)

	svc.now = time.Now
	_, err = svc.Verify(ctx, "+911111111111", sender.sent[1].Code)
	assert.ErrorIs(t, err, ErrNotFound, "expired codes are consumed")
}

func TestRateLimits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < MaxPerPhone; i++ {
		_, err := svc.Start(ctx, "+911111111111", "ip-a", nil)
		require.NoError(t, err)
	}
	_, err := svc.Start(ctx, "+911111111111", "ip-a", nil)
	assert.ErrorIs(t, err, ErrTooManyPhone)
	assert.True(t, IsRateLimited(err))

	phones := 0
	for err == nil || errors.Is(err, ErrTooManyPhone) {
		phones++
		_, err = svc.Start(ctx, fmt.Sprintf("+9199999%05d", phones), "ip-b", nil)
	}
	assert.ErrorIs(t, err, ErrTooManyIP)
	assert.Equal(t, MaxPerIP+1, phones)
}

type fakeDialer struct {
	msgs []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.msgs = append(f.msgs, m...)
	return nil
}

func TestMailSender(t *testing.T) {
	d := &fakeDialer{}
	fallback := &captureSender{}
	m := &MailSender{From: "noreply@sportsbridge.test", dialer: d, fallback: fallback}

	require.NoError(t, m.Send(context.Background(), Message{Phone: "+911111111111", Email: "benji@example.com", Code: "123456"}))
	require.Len(t, d.msgs, 1)
	assert.Equal(t, []string{"benji@example.com"}, d.msgs[0].GetHeader("To"))

	require.NoError(t, m.Send(context.Background(), Message{Phone: "+911111111111", Code: "654321"}))
	assert.Len(t, d.msgs, 1)
	require.Len(t, fallback.sent, 1)
	assert.Equal(t, "654321", fallback.sent[0].Code)
}

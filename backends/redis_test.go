package backends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixKey(t *testing.T) {
	r := &RedisBackend{KeyPrefix: "prefix_"}
	tests := []struct {
		keyName string
		want    string
	}{
		{"key1", "prefix_key1"},
		{"otp:+911111111111", "prefix_otp:+911111111111"},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			assert.Equal(t, tt.want, r.fixKey(tt.keyName))
		})
	}
}

func TestRedisBackend_SetGetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisBackend(db, "sb:")
	ctx := context.Background()

	mock.ExpectSet("sb:k", `{"Thing":"Test"}`, time.Minute).SetVal("OK")
	require.NoError(t, r.SetKey(ctx, "k", aStruct{Thing: "Test"}, time.Minute))

	mock.ExpectGet("sb:k").SetVal(`{"Thing":"Test"}`)
	target := aStruct{}
	require.NoError(t, r.GetKey(ctx, "k", &target))
	assert.Equal(t, "Test", target.Thing)

	mock.ExpectDel("sb:k").SetVal(1)
	require.NoError(t, r.DeleteKey(ctx, "k"))

	mock.ExpectGet("sb:k").RedisNil()
	assert.ErrorIs(t, r.GetKey(ctx, "k", &target), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisBackend(db, "")

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	err := r.GetKey(context.Background(), "k", &aStruct{})
	assert.EqualError(t, err, "connection refused")
}

func TestRedisBackend_Incr(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisBackend(db, "rl:")
	ctx := context.Background()

	mock.ExpectIncr("rl:ip").SetVal(1)
	mock.ExpectExpire("rl:ip", 10*time.Minute).SetVal(true)
	n, err := r.Incr(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectIncr("rl:ip").SetVal(2)
	n, err = r.Incr(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
Package backends provides the key/value stores that hold short lived state such as
one-time passwords and rate limit counters. The in-memory provider is the default and
is useful for testing; redis is used when several instances share state.
*/
package backends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/constants"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()

var ErrNotFound = errors.New("key not found")

// KVBackend stores JSON encoded values with an optional time to live.
type KVBackend interface {
	Init(conf interface{}) error
	SetKey(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	GetKey(ctx context.Context, key string, target interface{}) error
	DeleteKey(ctx context.Context, key string) error
	// Incr bumps a fixed-window counter, starting the window on the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// FromConfig builds and initialises the backend named in the KV section.
func FromConfig(conf configuration.KV) (KVBackend, error) {
	var b KVBackend
	switch conf.Backend {
	case "", constants.KVMemory:
		b = &InMemoryBackend{}
		return b, b.Init(nil)
	case constants.KVRedis:
		b = &RedisBackend{}
		return b, b.Init(conf.Redis)
	}
	return nil, fmt.Errorf("unknown kv backend %q", conf.Backend)
}

package backends

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var memLogger = log.WithField("prefix", "MEMORY STORE")

// InMemoryBackend keeps values in a process local go-cache.
type InMemoryBackend struct {
	kv *cache.Cache
}

// Init will create the initial in-memory store structures
func (m *InMemoryBackend) Init(_ interface{}) error {
	m.kv = cache.New(cache.NoExpiration, 5*time.Minute)
	memLogger.Debug("Initialised")
	return nil
}

func (m *InMemoryBackend) store() (*cache.Cache, error) {
	if m.kv == nil {
		return nil, errors.New("store not initialised")
	}
	return m.kv, nil
}

func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.NoExpiration
	}
	return ttl
}

func (m *InMemoryBackend) SetKey(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	kv, err := m.store()
	if err != nil {
		return err
	}
	asByte, err := json.Marshal(val)
	if err != nil {
		return err
	}
	kv.Set(key, asByte, expiry(ttl))
	return nil
}

func (m *InMemoryBackend) GetKey(_ context.Context, key string, target interface{}) error {
	kv, err := m.store()
	if err != nil {
		return err
	}
	v, ok := kv.Get(key)
	if !ok {
		return ErrNotFound
	}
	asByte, ok := v.([]byte)
	if !ok {
		return errors.New("value is not an encoded object")
	}
	return json.Unmarshal(asByte, target)
}

func (m *InMemoryBackend) DeleteKey(_ context.Context, key string) error {
	kv, err := m.store()
	if err != nil {
		return err
	}
	kv.Delete(key)
	return nil
}

func (m *InMemoryBackend) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	kv, err := m.store()
	if err != nil {
		return 0, err
	}
	for {
		if kv.Add(key, int64(1), expiry(window)) == nil {
			return 1, nil
		}
		n, err := kv.IncrementInt64(key, 1)
		if err == nil {
			return n, nil
		}
		if _, found := kv.Get(key); found {
			return 0, err
		}
		// the window expired between Add and IncrementInt64, start a new one
	}
}

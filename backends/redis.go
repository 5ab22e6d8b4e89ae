package backends

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/configuration"
)

var redisLogger = log.WithField("prefix", "REDIS STORE")

// RedisBackend stores values in redis under KeyPrefix.
type RedisBackend struct {
	db        redis.UniversalClient
	KeyPrefix string
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{db: client, KeyPrefix: prefix}
}

// Init connects using a configuration.RedisSettings (or anything that encodes like one).
func (r *RedisBackend) Init(config interface{}) error {
	conf, ok := config.(configuration.RedisSettings)
	if !ok {
		asJ, err := json.Marshal(config)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(asJ, &conf); err != nil {
			return err
		}
	}
	if conf.Addr == "" {
		conf.Addr = "localhost:6379"
	}
	r.KeyPrefix = conf.KeyPrefix
	r.db = redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Username: conf.Username,
		Password: conf.Password,
		DB:       conf.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx).Err(); err != nil {
		redisLogger.WithField("error", err).Error("Could not reach redis")
		return err
	}
	redisLogger.Info("Initialised")
	return nil
}

func (r *RedisBackend) fixKey(keyName string) string {
	return r.KeyPrefix + keyName
}

// SetKey will set the value of a key
func (r *RedisBackend) SetKey(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	redisLogger.Debug("Setting key: ", r.fixKey(key))
	asByte, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.db.Set(ctx, r.fixKey(key), string(asByte), ttl).Err(); err != nil {
		redisLogger.WithField("error", err).Error("Error trying to set value")
		return err
	}
	return nil
}

// GetKey decodes the stored JSON into target
func (r *RedisBackend) GetKey(ctx context.Context, key string, target interface{}) error {
	val, err := r.db.Get(ctx, r.fixKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		redisLogger.WithField("error", err).Debug("Error trying to get value")
		return err
	}
	return json.Unmarshal([]byte(val), target)
}

func (r *RedisBackend) DeleteKey(ctx context.Context, key string) error {
	if err := r.db.Del(ctx, r.fixKey(key)).Err(); err != nil {
		redisLogger.WithFields(logrus.Fields{
			"error": err,
			"key":   r.fixKey(key),
		}).Error("Error trying to delete key")
		return err
	}
	return nil
}

func (r *RedisBackend) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := r.fixKey(key)
	n, err := r.db.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && window > 0 {
		if err := r.db.Expire(ctx, k, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

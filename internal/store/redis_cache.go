package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"morvo-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "morvo:session:"
	resetKeyPrefix   = "morvo:reset:"
)

// Logger is the subset of the service logger the cache needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// RedisSessionCache decorates a Store with a write-through Redis cache for
// intake sessions and the reset flag. Everything else goes straight to the
// wrapped store. Cache failures never fail a call.
type RedisSessionCache struct {
	Store
	client *redis.Client
	ttl    time.Duration
	log    Logger
}

func NewRedisSessionCache(inner Store, client *redis.Client, ttl time.Duration, log Logger) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionCache{Store: inner, client: client, ttl: ttl, log: log}
}

func (c *RedisSessionCache) GetSession(ctx context.Context, userID string) (*models.IntakeSession, error) {
	raw, err := c.client.Get(ctx, sessionKeyPrefix+userID).Bytes()
	switch {
	case err == nil:
		var sess models.IntakeSession
		if jsonErr := json.Unmarshal(raw, &sess); jsonErr == nil {
			return &sess, nil
		}
		c.warn("discarding undecodable cached session", userID, nil)
	case !errors.Is(err, redis.Nil):
		c.warn("session cache read failed", userID, err)
	}

	sess, err := c.Store.GetSession(ctx, userID)
	if err != nil || sess == nil {
		return sess, err
	}
	c.putSession(ctx, sess)
	return sess, nil
}

func (c *RedisSessionCache) SaveSession(ctx context.Context, sess *models.IntakeSession) error {
	if err := c.Store.SaveSession(ctx, sess); err != nil {
		return err
	}
	c.putSession(ctx, sess)
	return nil
}

func (c *RedisSessionCache) DeleteSession(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		c.warn("session cache delete failed", userID, err)
	}
	return c.Store.DeleteSession(ctx, userID)
}

func (c *RedisSessionCache) SetResetPending(ctx context.Context, userID string, pending bool) error {
	if err := c.Store.SetResetPending(ctx, userID, pending); err != nil {
		return err
	}
	var err error
	if pending {
		err = c.client.Set(ctx, resetKeyPrefix+userID, "1", c.ttl).Err()
	} else {
		err = c.client.Set(ctx, resetKeyPrefix+userID, "0", c.ttl).Err()
	}
	if err != nil {
		c.warn("reset flag cache write failed", userID, err)
	}
	return nil
}

func (c *RedisSessionCache) IsResetPending(ctx context.Context, userID string) (bool, error) {
	val, err := c.client.Get(ctx, resetKeyPrefix+userID).Result()
	if err == nil {
		return val == "1", nil
	}
	if !errors.Is(err, redis.Nil) {
		c.warn("reset flag cache read failed", userID, err)
	}
	return c.Store.IsResetPending(ctx, userID)
}

func (c *RedisSessionCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return c.Store.Ping(ctx)
}

func (c *RedisSessionCache) putSession(ctx context.Context, sess *models.IntakeSession) {
	raw, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sessionKeyPrefix+sess.UserID, raw, c.ttl).Err(); err != nil {
		c.warn("session cache write failed", sess.UserID, err)
	}
}

func (c *RedisSessionCache) warn(msg, userID string, err error) {
	if c.log == nil {
		return
	}
	fields := map[string]interface{}{"userId": userID}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.log.Warn(msg, fields)
}

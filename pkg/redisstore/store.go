package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
)

// DefaultRetention is how long an expired user override stays readable.
const DefaultRetention = 30 * 24 * time.Hour

// Store keeps overrides in Redis as JSON documents.
//
// User overrides with an expiry get a key TTL of ExpiresAt plus the retention
// window, so expired records stay visible to audits for a while. Expiry itself
// is always decided by the resolver, never by key presence.
type Store struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

var _ entitlement.OverrideStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithRetention sets how long expired user overrides are kept.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.retention = d
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client is required")
	}
	s := &Store{client: client, retention: DefaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) globalKey() string { return s.prefix + "override:global" }
func (s *Store) indexKey() string  { return s.prefix + "override:users" }
func (s *Store) userKey(userID string) string {
	return s.prefix + "override:user:" + userID
}

func (s *Store) GetGlobalOverride(ctx context.Context) (*entitlement.GlobalOverride, error) {
	var g entitlement.GlobalOverride
	if err := s.get(ctx, s.globalKey(), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) SaveGlobalOverride(ctx context.Context, g *entitlement.GlobalOverride) error {
	if g == nil {
		return entitlement.ErrNilRecord
	}
	if err := g.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(g)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}
	if err := s.client.Set(ctx, s.globalKey(), b, 0).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

func (s *Store) ResetGlobalOverride(ctx context.Context) error {
	if err := s.client.Del(ctx, s.globalKey()).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

func (s *Store) GetUserOverride(ctx context.Context, userID string) (*entitlement.UserOverride, error) {
	var o entitlement.UserOverride
	if err := s.get(ctx, s.userKey(userID), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) SaveUserOverride(ctx context.Context, o *entitlement.UserOverride) error {
	if o == nil {
		return entitlement.ErrNilRecord
	}
	if err := o.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(o)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}

	args := redis.SetArgs{}
	if exp, ok := s.keyExpiry(o); ok {
		args.ExpireAt = exp
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetArgs(ctx, s.userKey(o.UserID), b, args)
		pipe.SAdd(ctx, s.indexKey(), o.UserID)
		return nil
	})
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

func (s *Store) DeleteUserOverride(ctx context.Context, userID string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.userKey(userID))
		pipe.SRem(ctx, s.indexKey(), userID)
		return nil
	})
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	if del.Val() == 0 {
		return entitlement.ErrNotFound
	}
	return nil
}

// ListUserOverrides returns the stored overrides sorted by user ID. Index
// entries whose key has been evicted are pruned.
func (s *Store) ListUserOverrides(ctx context.Context) ([]*entitlement.UserOverride, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.userKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}

	result := make([]*entitlement.UserOverride, 0, len(ids))
	var stale []any
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var o entitlement.UserOverride
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, errors.Join(ErrDecodeFailed, err)
		}
		result = append(result, &o)
	}
	if len(stale) > 0 {
		_ = s.client.SRem(ctx, s.indexKey(), stale...).Err()
	}
	return result, nil
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entitlement.ErrNotFound
	}
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	return nil
}

// keyExpiry returns when Redis may drop the override key.
func (s *Store) keyExpiry(o *entitlement.UserOverride) (time.Time, bool) {
	if o.ExpiresAt == nil {
		return time.Time{}, false
	}
	return o.ExpiresAt.Add(s.retention), true
}

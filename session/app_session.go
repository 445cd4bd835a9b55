package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AppSessionStore keeps staff console sessions in Redis, plus a per-staff
// set of live session ids so deactivating an account can revoke them all.
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

type AppSession struct {
	StaffID   string `json:"sid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func key(id string) string          { return fmt.Sprintf("app:sess:%s", id) }
func staffSetKey(sid string) string { return fmt.Sprintf("app:staff_sessions:%s", sid) }

func (s *AppSessionStore) Create(ctx context.Context, id, staffID string) error {
	now := time.Now()
	b, _ := json.Marshal(AppSession{
		StaffID:   staffID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, staffSetKey(staffID), id)
	pipe.Expire(ctx, staffSetKey(staffID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id) // 忽略失败
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, staffSetKey(as.StaffID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForStaff drops every live session of one staff member; used
// when an admin deactivates the account.
func (s *AppSessionStore) RevokeAllForStaff(ctx context.Context, staffID string) error {
	ids, err := s.rdb.SMembers(ctx, staffSetKey(staffID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, staffSetKey(staffID))
	_, err = pipe.Exec(ctx)
	return err
}

// Package session keeps browser login sessions in redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "sessionid"

var ErrNotFound = errors.New("session not found")

type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	newID  func() string
}

func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		client: client,
		prefix: "session:",
		ttl:    ttl,
		newID:  uuid.NewString,
	}
}

// NewRedisClient builds the client used by the store.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for userID and returns its ID.
func (s *Store) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	id := s.newID()
	if err := s.client.Set(ctx, s.key(id), userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// Get resolves a session ID to its user. Unknown, expired or corrupt
// sessions return ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.Nil, ErrNotFound
	}
	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("load session: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return userID, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ClaimTTL bounds how long a pending claim (and its failure counter) lives.
	ClaimTTL = 15 * time.Minute
	// MaxClaimAttempts is the failed-verification ceiling before a claim is purged.
	MaxClaimAttempts = 5

	claimKeyPrefix    = "claim:"
	attemptsKeyPrefix = "claim-attempts:"
)

// ClaimRecord is the cache-resident value for one in-flight registration.
type ClaimRecord struct {
	CodeHash string `json:"code_hash"`
	Email    string `json:"email"`
	Slug     string `json:"slug"`
}

// ClaimStore holds pending claims and their failure counters in Redis.
type ClaimStore struct {
	rdb *redis.Client
}

func NewClaimStore(rdb *redis.Client) *ClaimStore {
	return &ClaimStore{rdb: rdb}
}

func claimKey(email, slug string) string {
	return claimKeyPrefix + email + ":" + slug
}

func attemptsKey(email, slug string) string {
	return attemptsKeyPrefix + email + ":" + slug
}

// Put writes a pending claim, overwriting any prior claim for the same
// (email, slug) pair, with a fresh 15-minute expiry.
func (s *ClaimStore) Put(ctx context.Context, email, slug, codeHash string) error {
	data, err := json.Marshal(ClaimRecord{CodeHash: codeHash, Email: email, Slug: slug})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, claimKey(email, slug), data, ClaimTTL).Err()
}

// Get loads a pending claim. A missing or expired claim returns (nil, nil);
// no distinction is made between true expiry and never having existed.
func (s *ClaimStore) Get(ctx context.Context, email, slug string) (*ClaimRecord, error) {
	val, err := s.rdb.Get(ctx, claimKey(email, slug)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec ClaimRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Attempts returns the failure count for a claim; an absent counter is zero.
func (s *ClaimStore) Attempts(ctx context.Context, email, slug string) (int, error) {
	n, err := s.rdb.Get(ctx, attemptsKey(email, slug)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RecordFailure increments the failure counter and refreshes its expiry.
func (s *ClaimStore) RecordFailure(ctx context.Context, email, slug string) error {
	key := attemptsKey(email, slug)
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, ClaimTTL).Err()
}

// Purge removes both the claim and its failure counter.
func (s *ClaimStore) Purge(ctx context.Context, email, slug string) error {
	return s.rdb.Del(ctx, claimKey(email, slug), attemptsKey(email, slug)).Err()
}

// Package idempotency records which domain events a consumer has already
// handled so Pub/Sub redeliveries are applied at most once.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const scopePrefix = "evt:processed:"

// Store is the Redis surface the tracker needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

var (
	errConsumerRequired = errors.New("consumer name is required")
	errEventIDRequired  = errors.New("event id is required")
)

// Tracker claims event ids per consumer. A claim lives for ttl; zero keeps
// it until evicted.
type Tracker struct {
	store Store
	ttl   time.Duration
}

func NewTracker(store Store, ttl time.Duration) (*Tracker, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Tracker{store: store, ttl: ttl}, nil
}

// Claim reports true when this call is the first to see eventID for
// consumer. A false result means the event was handled already.
func (t *Tracker) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := t.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return t.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), t.ttl)
}

// Release drops a claim so a redelivery can retry the event.
func (t *Tracker) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := t.key(consumer, eventID)
	if err != nil {
		return err
	}
	return t.store.Del(ctx, key)
}

func (t *Tracker) key(consumer string, eventID uuid.UUID) (string, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return "", errConsumerRequired
	}
	if eventID == uuid.Nil {
		return "", errEventIDRequired
	}
	return t.store.IdempotencyKey(scopePrefix+consumer, eventID.String()), nil
}

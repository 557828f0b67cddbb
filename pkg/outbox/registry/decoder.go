package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
)

// Decoder turns an envelope's data field into a typed payload.
type Decoder func(data json.RawMessage) (any, error)

type decoderKey struct {
	event   enums.OutboxEventType
	version int
}

// DecoderRegistry maps (event type, schema version) to a payload decoder.
// Envelopes written before versioning carry version 0 and decode as v1.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[decoderKey]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[decoderKey]Decoder{}}
}

// NewDomainDecoderRegistry knows every payload the platform emits.
func NewDomainDecoderRegistry() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 1, JSON[payloads.OrderCreatedEvent]())
	reg.Register(enums.EventOrderStatusChanged, 1, JSON[payloads.OrderStatusChangedEvent]())
	reg.Register(enums.EventReviewSubmitted, 1, JSON[payloads.ReviewSubmittedEvent]())
	return reg
}

// JSON decodes into a fresh *T.
func JSON[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode Decoder) {
	r.mu.Lock()
	r.decoders[decoderKey{eventType, normalizeVersion(version)}] = decode
	r.mu.Unlock()
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	version = normalizeVersion(version)
	r.mu.RLock()
	decode, ok := r.decoders[decoderKey{eventType, version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decode(data)
}

func normalizeVersion(v int) int {
	return max(v, 1)
}

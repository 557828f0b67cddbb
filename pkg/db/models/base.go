package models

import "github.com/google/uuid"

// All lists every persisted model. The sqlite driver uses it to build the
// schema that the Postgres migrations create in production.
func All() []any {
	return []any{
		&User{},
		&Craft{},
		&Order{},
		&OrderItem{},
		&CartItem{},
		&Review{},
		&ReviewHelpful{},
		&WishlistItem{},
		&Notification{},
		&OutboxEvent{},
	}
}

// ensureID assigns a client-side UUID when the row has none yet.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

package models

// All lists every persisted model in dependency order. Used by sqlite
// bootstrapping where the goose SQL migrations do not apply.
func All() []any {
	return []any{
		&Product{},
		&InventoryItem{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderLineItem{},
		&OrderHistory{},
		&Review{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}

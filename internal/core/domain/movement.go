package domain

import "time"

// MovementKind distinguishes stock leaving from stock arriving.
type MovementKind string

const (
	MovementPurchase MovementKind = "purchase"
	MovementRestock  MovementKind = "restock"
)

// StockMovement is the audit record of one committed stock change.
type StockMovement struct {
	ID        string       `json:"id" bson:"-"`
	ItemID    string       `json:"itemId" bson:"item_id"`
	Kind      MovementKind `json:"kind" bson:"kind"`
	Quantity  int          `json:"quantity" bson:"quantity"`
	Remaining int          `json:"remaining" bson:"remaining"`
	ActorID   string       `json:"actorId" bson:"actor_id"`
	At        time.Time    `json:"at" bson:"at"`
}

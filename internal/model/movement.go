package model

import "fmt"

// MovementKind tells whether a movement adds or removes stock.
type MovementKind string

// Movement kinds.
const (
	Inbound  MovementKind = "Inbound"
	Outbound MovementKind = "Outbound"
)

// MaxQuantity is the largest quantity a single movement may carry.
const MaxQuantity = 2147483647

// ParseMovementKind validates a movement kind.
func ParseMovementKind(s string) (MovementKind, error) {
	switch k := MovementKind(s); k {
	case Inbound, Outbound:
		return k, nil
	default:
		return "", fmt.Errorf("%q is not a valid movement type", s)
	}
}

// StockMovement is a single inbound or outbound transaction. Date and Time
// say when the goods physically moved, not when the row was written.
type StockMovement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product"`
	Quantity  int64        `json:"quantity"`
	Kind      MovementKind `json:"movement_type"`
	Date      Date         `json:"movement_date"`
	Time      TimeOfDay    `json:"time"`

	// Joined field (not always populated).
	ProductName string `json:"-"`
}

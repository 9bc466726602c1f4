// Package ordering holds the position arithmetic shared by workout sessions,
// session exercises and target sets.
package ordering

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// First is the position handed out to the first child of an empty parent.
const First = 1

var (
	ErrDuplicateID    = errors.New("reorder payload repeats an id")
	ErrDuplicateOrder = errors.New("reorder payload repeats an order value")
	ErrForeignID      = errors.New("reorder payload references an id outside the parent")
	ErrInvalidOrder   = errors.New("order values must be positive")
	ErrEmptyPayload   = errors.New("reorder payload is empty")
)

// NextPosition returns max(existing)+1, or First when there are no siblings.
func NextPosition(existing []int) int {
	next := First
	for _, o := range existing {
		if o+1 > next {
			next = o + 1
		}
	}
	return next
}

// CloseGap returns the orders that remain after removing `removed`, with every
// value above it shifted down by one. Only sets are renumbered this way;
// sessions and session exercises keep the hole.
func CloseGap(orders []int, removed int) []int {
	out := make([]int, 0, len(orders))
	for _, o := range orders {
		switch {
		case o == removed:
			continue
		case o > removed:
			out = append(out, o-1)
		default:
			out = append(out, o)
		}
	}
	return out
}

// Item is one {id, new order} pair of a reorder request.
type Item struct {
	ID    primitive.ObjectID `json:"id"`
	Order int                `json:"order"`
}

// ValidateReorder checks a reorder payload against the ids currently under
// the parent. Partial payloads are accepted; duplicates, unknown ids and
// non-positive orders are not. Collisions with siblings left out of the payload
// are caught by the unique index when the batch is applied.
func ValidateReorder(items []Item, siblingIDs []primitive.ObjectID) error {
	if len(items) == 0 {
		return ErrEmptyPayload
	}
	known := make(map[primitive.ObjectID]struct{}, len(siblingIDs))
	for _, id := range siblingIDs {
		known[id] = struct{}{}
	}

	seenIDs := make(map[primitive.ObjectID]struct{}, len(items))
	seenOrders := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Order < First {
			return fmt.Errorf("%w: %s -> %d", ErrInvalidOrder, it.ID.Hex(), it.Order)
		}
		if _, ok := known[it.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrForeignID, it.ID.Hex())
		}
		if _, dup := seenIDs[it.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID.Hex())
		}
		if _, dup := seenOrders[it.Order]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateOrder, it.Order)
		}
		seenIDs[it.ID] = struct{}{}
		seenOrders[it.Order] = struct{}{}
	}
	return nil
}

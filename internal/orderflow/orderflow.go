package orderflow

import (
	"errors"
	"fmt"
	"strings"

	"vcnty/vcntyapi"
)

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
)

var (
	ErrOrderClosed       = errors.New("order is already closed")
	ErrAlreadyShipped    = errors.New("order is already shipped")
	ErrUnsupportedStatus = errors.New("unsupported target status")
)

// NormalizeStatus upper-cases and trims a status value.
func NormalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

func IsPending(status string) bool {
	switch NormalizeStatus(status) {
	case StatusPending, StatusProcessing:
		return true
	}
	return false
}

// IsClosed reports whether a seller can no longer act on the order.
func IsClosed(status string) bool {
	switch NormalizeStatus(status) {
	case StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// AllowedTargets lists the statuses a seller may move an order to.
func AllowedTargets(current string) []string {
	if IsClosed(current) {
		return []string{}
	}
	targets := make([]string, 0, 3)
	if NormalizeStatus(current) != StatusShipped {
		targets = append(targets, StatusShipped)
	}
	return append(targets, StatusDelivered, StatusCancelled)
}

// ValidateTransition checks a seller action and returns the normalized target
// status. A cancellation reason is optional.
func ValidateTransition(current, next string) (string, error) {
	target := NormalizeStatus(next)
	switch target {
	case StatusShipped, StatusDelivered, StatusCancelled:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStatus, next)
	}

	if IsClosed(current) {
		return "", fmt.Errorf("%w: status %s", ErrOrderClosed, NormalizeStatus(current))
	}
	if target == StatusShipped && NormalizeStatus(current) == StatusShipped {
		return "", ErrAlreadyShipped
	}
	return target, nil
}

// Buckets groups seller orders by what still needs doing.
type Buckets struct {
	Pending []vcntyapi.Order
	Shipped []vcntyapi.Order
	Closed  []vcntyapi.Order
}

// Split sorts orders into buckets, keeping the input order within each.
// Unknown statuses count as pending so they stay visible.
func Split(orders []vcntyapi.Order) Buckets {
	buckets := Buckets{
		Pending: make([]vcntyapi.Order, 0, len(orders)),
		Shipped: make([]vcntyapi.Order, 0),
		Closed:  make([]vcntyapi.Order, 0),
	}
	for _, order := range orders {
		switch {
		case IsClosed(order.Status):
			buckets.Closed = append(buckets.Closed, order)
		case NormalizeStatus(order.Status) == StatusShipped:
			buckets.Shipped = append(buckets.Shipped, order)
		default:
			buckets.Pending = append(buckets.Pending, order)
		}
	}
	return buckets
}

package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStatus     = errors.New("order: unknown status")
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

// Status is a shipment stage. Stages form a fixed linear track; Cancelled sits
// outside the track.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPurchased Status = "purchased"
	StatusShipped   Status = "shipped"
	StatusInTransit Status = "in_transit"
	StatusArrived   Status = "arrived"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var stages = []Status{
	StatusPending,
	StatusPaid,
	StatusPurchased,
	StatusShipped,
	StatusInTransit,
	StatusArrived,
	StatusDelivered,
}

var labels = map[Status]string{
	StatusPending:   "Order received",
	StatusPaid:      "Payment confirmed",
	StatusPurchased: "Purchased from seller",
	StatusShipped:   "Shipped to our warehouse",
	StatusInTransit: "In transit",
	StatusArrived:   "Arrived in country",
	StatusDelivered: "Delivered",
	StatusCancelled: "Cancelled",
}

// Stages returns the tracked stages in order.
func Stages() []Status {
	return append([]Status(nil), stages...)
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := labels[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Label() string { return labels[s] }

// Stage returns the position of s on the track, or -1 for Cancelled and
// unknown values.
func (s Status) Stage() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Progress returns the completion percentage rendered by the progress bar.
func (s Status) Progress() int {
	i := s.Stage()
	if i < 0 {
		return 0
	}
	return i * 100 / (len(stages) - 1)
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Orders only move forward along the track, possibly skipping stages, and can
// be cancelled until delivered.
func CanTransition(from, to Status) error {
	if to.Stage() < 0 && to != StatusCancelled {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}
	if to == StatusCancelled {
		return nil
	}
	if to.Stage() <= from.Stage() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

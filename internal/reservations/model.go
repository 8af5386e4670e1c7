package reservations

import "time"

const (
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// Reservation is a backorder: it exists only while the material has no
// available copy. At most one pending row per (user, material) pair.
type Reservation struct {
	ReservationID   int64
	ReservationULID string
	UserID          int64
	MaterialID      int64
	ReservedAt      time.Time
	Status          string
}

type ReservationFilter struct {
	BorrowerUsername *string
	MaterialID       *int64
	Status           *string
}

// ReservationRow is a reservation joined with borrower and material.
type ReservationRow struct {
	Reservation
	BorrowerUsername string
	MaterialTitle    string
}

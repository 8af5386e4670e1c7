package reservations

import "time"

type CreateReservationRequest struct {
	// filled from the session for readers, settable by librarians
	Borrower   string `json:"borrower"`
	MaterialID int64  `json:"material_id" binding:"required"`
}

type ReservationResponse struct {
	ReservationID   int64     `json:"reservation_id"`
	ReservationULID string    `json:"reservation_ulid"`
	Borrower        string    `json:"borrower,omitempty"`
	MaterialID      int64     `json:"material_id"`
	Material        string    `json:"material,omitempty"`
	ReservedAt      time.Time `json:"reserved_at"`
	Status          string    `json:"status"`
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

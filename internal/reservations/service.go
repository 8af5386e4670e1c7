package reservations

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Service struct {
	store ReservationStore
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// Reserve registers a backorder for a material with no available copies.
func (s *Service) Reserve(ctx context.Context, req CreateReservationRequest) (*ReservationResponse, error) {
	if req.Borrower == "" {
		return nil, ErrInvalid("borrower is required")
	}
	if req.MaterialID <= 0 {
		return nil, ErrInvalid("material_id must be > 0")
	}

	userID, err := s.store.ResolveBorrower(ctx, req.Borrower)
	if err != nil {
		return nil, err
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	m := &Reservation{
		ReservationULID: idStr,
		UserID:          userID,
		MaterialID:      req.MaterialID,
		ReservedAt:      s.clock.Now(),
		Status:          StatusPending,
	}

	if err := s.store.ExecReserve(ctx, m); err != nil {
		return nil, err
	}

	return &ReservationResponse{
		ReservationID:   m.ReservationID,
		ReservationULID: m.ReservationULID,
		Borrower:        req.Borrower,
		MaterialID:      m.MaterialID,
		ReservedAt:      m.ReservedAt,
		Status:          m.Status,
	}, nil
}

// Cancel flips a pending reservation to cancelled. actorUsername must own
// the reservation unless actorIsStaff.
func (s *Service) Cancel(ctx context.Context, key, actorUsername string, actorIsStaff bool) error {
	res, err := s.getByKey(ctx, key)
	if err != nil {
		return err
	}

	actorID, err := s.store.ResolveBorrower(ctx, actorUsername)
	if err != nil {
		return err
	}

	return s.store.ExecCancel(ctx, res.ReservationID, actorID, actorIsStaff)
}

func (s *Service) List(ctx context.Context, f ReservationFilter, p Page) ([]ReservationResponse, int64, error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ReservationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReservationResponse{
			ReservationID:   r.ReservationID,
			ReservationULID: r.ReservationULID,
			Borrower:        r.BorrowerUsername,
			MaterialID:      r.MaterialID,
			Material:        r.MaterialTitle,
			ReservedAt:      r.ReservedAt,
			Status:          r.Status,
		})
	}
	return out, total, nil
}

func (s *Service) getByKey(ctx context.Context, key string) (*Reservation, error) {
	if key == "" {
		return nil, ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return s.store.GetByID(ctx, id)
	}
	return s.store.GetByULID(ctx, key)
}

package reservations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== in-memory ReservationStore =====

type fakeReservationStore struct {
	users     map[string]int64
	available map[int64]int // material_id -> available_copies
	rows      map[int64]*Reservation
	nextID    int64
}

func newFakeStore() *fakeReservationStore {
	return &fakeReservationStore{
		users:     map[string]int64{},
		available: map[int64]int{},
		rows:      map[int64]*Reservation{},
	}
}

func (f *fakeReservationStore) ResolveBorrower(_ context.Context, username string) (int64, error) {
	id, ok := f.users[username]
	if !ok {
		return 0, ErrNotFound("borrower not found")
	}
	return id, nil
}

func (f *fakeReservationStore) ExecReserve(_ context.Context, m *Reservation) error {
	available, ok := f.available[m.MaterialID]
	if !ok {
		return ErrNotFound("material not found")
	}
	if available > 0 {
		return ErrMaterialAvailable("copies are available, borrow instead of reserving")
	}
	for _, r := range f.rows {
		if r.UserID == m.UserID && r.MaterialID == m.MaterialID && r.Status == StatusPending {
			return ErrDuplicateReservation("a pending reservation already exists for this material")
		}
	}
	f.nextID++
	m.ReservationID = f.nextID
	cp := *m
	f.rows[m.ReservationID] = &cp
	return nil
}

func (f *fakeReservationStore) ExecCancel(_ context.Context, reservationID, actorUserID int64, actorIsStaff bool) error {
	r, ok := f.rows[reservationID]
	if !ok {
		return ErrNotFound("reservation not found")
	}
	if !actorIsStaff && r.UserID != actorUserID {
		return ErrNotFound("reservation not found")
	}
	if r.Status != StatusPending {
		return ErrConflict("reservation is not pending")
	}
	r.Status = StatusCancelled
	return nil
}

func (f *fakeReservationStore) GetByID(_ context.Context, reservationID int64) (*Reservation, error) {
	r, ok := f.rows[reservationID]
	if !ok {
		return nil, ErrNotFound("reservation not found")
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationStore) GetByULID(_ context.Context, ulid string) (*Reservation, error) {
	for _, r := range f.rows {
		if r.ReservationULID == ulid {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound("reservation not found")
}

func (f *fakeReservationStore) List(_ context.Context, flt ReservationFilter, _ Page) ([]ReservationRow, int64, error) {
	var out []ReservationRow
	for _, r := range f.rows {
		if flt.Status != nil && r.Status != *flt.Status {
			continue
		}
		out = append(out, ReservationRow{Reservation: *r})
	}
	return out, int64(len(out)), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("TESTULID%018d", g.n), nil
}

func newTestService(store *fakeReservationStore) *Service {
	return &Service{
		store: store,
		clock: fixedClock{t: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)},
		id:    &seqIDGen{},
	}
}

// ===== tests =====

func TestReserveWhenStockExhausted(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.available[10] = 0

	svc := newTestService(store)

	res, err := svc.Reserve(context.Background(), CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.NotZero(t, res.ReservationID)
	assert.Equal(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), res.ReservedAt)
}

func TestReserveRejectedWhileCopiesAvailable(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.available[10] = 2

	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeMaterialAvailable, err.(*APIError).Code)
	assert.Empty(t, store.rows)
}

func TestReserveDuplicatePendingRejected(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.available[10] = 0

	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeDuplicateReservation, err.(*APIError).Code)
	assert.Len(t, store.rows, 1)
}

func TestReserveDifferentBorrowersAllowed(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.users["jorge"] = 2
	store.available[10] = 0

	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, CreateReservationRequest{Borrower: "jorge", MaterialID: 10})
	require.NoError(t, err)
	assert.Len(t, store.rows, 2)
}

func TestReserveUnknownBorrower(t *testing.T) {
	store := newFakeStore()
	store.available[10] = 0

	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), CreateReservationRequest{Borrower: "nobody", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
}

func TestCancelOwnReservation(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.available[10] = 0

	svc := newTestService(store)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, res.ReservationULID, "maria", false))
	assert.Equal(t, StatusCancelled, store.rows[res.ReservationID].Status)

	// cancelled rows stay cancelled
	err = svc.Cancel(ctx, res.ReservationULID, "maria", false)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
}

func TestCancelForeignReservationHidden(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.users["jorge"] = 2
	store.available[10] = 0

	svc := newTestService(store)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, CreateReservationRequest{Borrower: "maria", MaterialID: 10})
	require.NoError(t, err)

	err = svc.Cancel(ctx, res.ReservationULID, "jorge", false)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)

	// staff may cancel on behalf
	require.NoError(t, svc.Cancel(ctx, res.ReservationULID, "jorge", true))
}

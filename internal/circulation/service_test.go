package circulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== in-memory LedgerStore =====

type fakeMaterial struct {
	total     int
	available int
}

type fakeLedgerStore struct {
	users     map[string]int64
	materials map[int64]*fakeMaterial
	loans     map[int64]*Loan
	nextID    int64
}

func newFakeStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		users:     map[string]int64{},
		materials: map[int64]*fakeMaterial{},
		loans:     map[int64]*Loan{},
	}
}

func (f *fakeLedgerStore) ResolveBorrower(_ context.Context, username string) (int64, error) {
	id, ok := f.users[username]
	if !ok {
		return 0, ErrNotFound("borrower not found")
	}
	return id, nil
}

func (f *fakeLedgerStore) ExecRegisterLoan(_ context.Context, m *Loan) error {
	mat, ok := f.materials[m.MaterialID]
	if !ok {
		return ErrNotFound("material not found")
	}
	if mat.available < 1 {
		return ErrInsufficientStock("no copies available")
	}
	mat.available--
	f.nextID++
	m.LoanID = f.nextID
	cp := *m
	f.loans[m.LoanID] = &cp
	return nil
}

func (f *fakeLedgerStore) ExecCloseLoan(_ context.Context, loanID int64, returnedAt time.Time, fineCents int64) error {
	loan, ok := f.loans[loanID]
	if !ok {
		return ErrNotFound("loan not found")
	}
	if loan.Status != StatusActive {
		return ErrAlreadyReturned("loan already returned")
	}
	mat := f.materials[loan.MaterialID]
	if mat.available >= mat.total {
		return ErrInternal("failed to update materials.available_copies")
	}
	loan.Status = StatusReturned
	loan.ReturnDate.Time = returnedAt
	loan.ReturnDate.Valid = true
	loan.FineCents = fineCents
	mat.available++
	return nil
}

func (f *fakeLedgerStore) GetLoanByID(_ context.Context, loanID int64) (*Loan, error) {
	loan, ok := f.loans[loanID]
	if !ok {
		return nil, ErrNotFound("loan not found")
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeLedgerStore) GetLoanByULID(_ context.Context, ulid string) (*Loan, error) {
	for _, loan := range f.loans {
		if loan.LoanULID == ulid {
			cp := *loan
			return &cp, nil
		}
	}
	return nil, ErrNotFound("loan not found")
}

func (f *fakeLedgerStore) ListLoans(_ context.Context, flt LoanFilter, _ Page) ([]LoanRow, int64, error) {
	var out []LoanRow
	for _, loan := range f.loans {
		if flt.Status != nil && loan.Status != *flt.Status {
			continue
		}
		if flt.MaterialID != nil && loan.MaterialID != *flt.MaterialID {
			continue
		}
		out = append(out, LoanRow{Loan: *loan})
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerStore) activeLoans(materialID int64) int {
	n := 0
	for _, loan := range f.loans {
		if loan.MaterialID == materialID && loan.Status == StatusActive {
			n++
		}
	}
	return n
}

// stock invariant: available == total - active loans, for every material
func (f *fakeLedgerStore) assertInvariant(t *testing.T) {
	t.Helper()
	for id, mat := range f.materials {
		assert.Equal(t, mat.total-f.activeLoans(id), mat.available, "material %d", id)
	}
}

// ===== test doubles for clock / id =====

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("TESTULID%018d", g.n), nil
}

func newTestService(store *fakeLedgerStore, now time.Time) *Service {
	return &Service{
		store:      store,
		clock:      fixedClock{t: now},
		id:         &seqIDGen{},
		loanPeriod: 14 * 24 * time.Hour,
		fineRate:   500,
	}
}

// ===== tests =====

func TestRegisterLoan(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.materials[10] = &fakeMaterial{total: 2, available: 2}

	svc := newTestService(store, date(2025, 1, 1))

	res, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, res.Status)
	assert.Equal(t, date(2025, 1, 1), res.LoanDate)
	assert.Equal(t, date(2025, 1, 15), res.DueDate)
	assert.Equal(t, 1, store.materials[10].available)
	store.assertInvariant(t)
}

func TestRegisterLoanUnknownBorrower(t *testing.T) {
	store := newFakeStore()
	store.materials[10] = &fakeMaterial{total: 1, available: 1}

	svc := newTestService(store, date(2025, 1, 1))

	_, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "nobody", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
	assert.Equal(t, 1, store.materials[10].available)
}

func TestRegisterLoanInsufficientStock(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.materials[10] = &fakeMaterial{total: 1, available: 0}

	svc := newTestService(store, date(2025, 1, 1))

	_, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientStock, err.(*APIError).Code)
	assert.Empty(t, store.loans)
	assert.Equal(t, 0, store.materials[10].available)
}

func TestRegisterReturnComputesFine(t *testing.T) {
	tb := []struct {
		name       string
		returnedOn time.Time
		days       int
		fine       int64
	}{
		{"on time", date(2025, 1, 15), 0, 0},
		{"five days late", date(2025, 1, 20), 5, 2500},
	}

	for _, entry := range tb {
		t.Run(entry.name, func(t *testing.T) {
			store := newFakeStore()
			store.users["maria"] = 1
			store.materials[10] = &fakeMaterial{total: 1, available: 1}

			svc := newTestService(store, date(2025, 1, 1))
			loan, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
			require.NoError(t, err)

			svc.clock = fixedClock{t: entry.returnedOn}
			res, err := svc.RegisterReturn(context.Background(), CreateReturnRequest{LoanID: loan.LoanID})
			require.NoError(t, err)
			assert.Equal(t, entry.days, res.DaysLate)
			assert.Equal(t, entry.fine, res.FineCents)
			assert.Equal(t, 1, store.materials[10].available)
			store.assertInvariant(t)
		})
	}
}

func TestRegisterReturnTwiceRejected(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.materials[10] = &fakeMaterial{total: 1, available: 1}

	svc := newTestService(store, date(2025, 1, 1))
	loan, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
	require.NoError(t, err)

	_, err = svc.RegisterReturn(context.Background(), CreateReturnRequest{LoanID: loan.LoanID})
	require.NoError(t, err)

	_, err = svc.RegisterReturn(context.Background(), CreateReturnRequest{LoanID: loan.LoanID})
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyReturned, err.(*APIError).Code)

	// the second attempt must not give the copy back twice
	assert.Equal(t, 1, store.materials[10].available)
	store.assertInvariant(t)
}

func TestLoanReturnScenario(t *testing.T) {
	// total=3: three loans drain the stock, a fourth fails, one return
	// brings a copy back
	store := newFakeStore()
	store.users["maria"] = 1
	store.materials[10] = &fakeMaterial{total: 3, available: 3}

	svc := newTestService(store, date(2025, 1, 1))
	ctx := context.Background()

	var first *LoanResponse
	for i := 0; i < 3; i++ {
		res, err := svc.RegisterLoan(ctx, CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
		require.NoError(t, err)
		if first == nil {
			first = res
		}
	}
	assert.Equal(t, 0, store.materials[10].available)
	store.assertInvariant(t)

	_, err := svc.RegisterLoan(ctx, CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientStock, err.(*APIError).Code)

	_, err = svc.RegisterReturn(ctx, CreateReturnRequest{LoanID: first.LoanID})
	require.NoError(t, err)
	assert.Equal(t, 1, store.materials[10].available)
	store.assertInvariant(t)
}

func TestRegisterReturnByULID(t *testing.T) {
	store := newFakeStore()
	store.users["maria"] = 1
	store.materials[10] = &fakeMaterial{total: 1, available: 1}

	svc := newTestService(store, date(2025, 1, 1))
	loan, err := svc.RegisterLoan(context.Background(), CreateLoanRequest{BorrowerUsername: "maria", MaterialID: 10})
	require.NoError(t, err)

	res, err := svc.RegisterReturn(context.Background(), CreateReturnRequest{LoanULID: loan.LoanULID})
	require.NoError(t, err)
	assert.Equal(t, loan.LoanID, res.LoanID)
}

func TestRegisterReturnValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), date(2025, 1, 1))

	_, err := svc.RegisterReturn(context.Background(), CreateReturnRequest{})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

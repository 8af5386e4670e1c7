package reports

import (
	"context"
	"database/sql"
	"time"

	"SIGB-backend/internal/circulation"
	platformdb "SIGB-backend/internal/platform/db"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type Service struct {
	store    ReportStore
	clock    Clock
	fineRate int64
}

func NewService(db *sql.DB, cfg platformdb.CirculationConfig) *Service {
	return &Service{
		store:    NewStore(db),
		clock:    realClock{},
		fineRate: cfg.FineRatePerDay,
	}
}

func (s *Service) TopMaterials(ctx context.Context, limit int) ([]TopMaterial, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.store.TopMaterials(ctx, limit)
}

// OverdueLoans lists active loans past due with the fine accrued so far.
func (s *Service) OverdueLoans(ctx context.Context) ([]OverdueLoan, error) {
	now := s.clock.Now()
	out, err := s.store.OverdueLoans(ctx, now)
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].DaysLate, out[i].AccruedFine = circulation.LateFine(out[i].DueDate, now, s.fineRate)
	}
	return out, nil
}

package opac

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Service struct {
	store SearchStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) Search(ctx context.Context, rawTerm string, categoryID *int64, p Page) ([]Result, int64, error) {
	term := FoldTerm(rawTerm)
	if term == "" && categoryID == nil {
		return nil, 0, ErrInvalid("q or category is required")
	}
	return s.store.Search(ctx, term, categoryID, p)
}

func (s *Service) GetMaterial(ctx context.Context, materialID int64) (*Result, error) {
	if materialID <= 0 {
		return nil, ErrInvalid("material_id must be > 0")
	}
	return s.store.GetMaterial(ctx, materialID)
}

// FoldTerm strips diacritics and lowercases a search term, so "García
// Márquez" and "garcia marquez" hit the same rows.
func FoldTerm(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

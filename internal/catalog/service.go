package catalog

import (
	"context"
	"database/sql"
	"errors"

	mysql "github.com/go-sql-driver/mysql"
)

type Service struct {
	store CatalogStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) CreateMaterial(ctx context.Context, in CreateMaterialRequest) (*MaterialResponse, error) {
	if in.Title == "" || in.ISBN == "" {
		return nil, ErrInvalid("title and isbn are required")
	}
	if in.PublicationYear <= 0 {
		return nil, ErrInvalid("publication_year must be > 0")
	}
	if in.TotalCopies < 0 {
		return nil, ErrInvalid("total_copies must be >= 0")
	}
	if in.AuthorID <= 0 || in.PublisherID <= 0 {
		return nil, ErrInvalid("author_id and publisher_id are required")
	}

	m := &Material{
		Title:           in.Title,
		ISBN:            in.ISBN,
		PublicationYear: in.PublicationYear,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies, // every copy starts on the shelf
		AuthorID:        in.AuthorID,
		PublisherID:     in.PublisherID,
	}

	if err := s.store.ExecCreateMaterial(ctx, m, distinctIDs(in.CategoryIDs)); err != nil {
		return nil, mapStoreError(err)
	}

	return s.GetMaterial(ctx, m.MaterialID)
}

func (s *Service) UpdateMaterial(ctx context.Context, materialID int64, in UpdateMaterialRequest) (*MaterialResponse, error) {
	if materialID <= 0 {
		return nil, ErrInvalid("material_id must be > 0")
	}
	if in.Title != nil && *in.Title == "" {
		return nil, ErrInvalid("title must not be empty")
	}
	if in.TotalCopies != nil && *in.TotalCopies < 0 {
		return nil, ErrInvalid("total_copies must be >= 0")
	}
	if in.CategoryIDs != nil {
		ids := distinctIDs(*in.CategoryIDs)
		in.CategoryIDs = &ids
	}

	if err := s.store.ExecUpdateMaterial(ctx, materialID, in); err != nil {
		return nil, mapStoreError(err)
	}
	return s.GetMaterial(ctx, materialID)
}

// SetCategories replaces the full category set for a material. Duplicates in
// the request collapse; an empty list clears the set.
func (s *Service) SetCategories(ctx context.Context, materialID int64, categoryIDs []int64) error {
	if materialID <= 0 {
		return ErrInvalid("material_id must be > 0")
	}
	if err := s.store.ExecSetCategories(ctx, materialID, distinctIDs(categoryIDs)); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *Service) DeleteMaterial(ctx context.Context, materialID int64) error {
	if materialID <= 0 {
		return ErrInvalid("material_id must be > 0")
	}
	return s.store.ExecDeleteMaterial(ctx, materialID)
}

func (s *Service) GetMaterial(ctx context.Context, materialID int64) (*MaterialResponse, error) {
	r, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	resp := buildMaterialResponse(r)
	return &resp, nil
}

func (s *Service) ListMaterials(ctx context.Context, p Page) ([]MaterialResponse, int64, error) {
	rows, total, err := s.store.ListMaterials(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MaterialResponse, 0, len(rows))
	for i := range rows {
		out = append(out, buildMaterialResponse(&rows[i]))
	}
	return out, total, nil
}

func (s *Service) ListSupport(ctx context.Context) (*SupportLists, error) {
	return s.store.ListSupport(ctx)
}

// distinctIDs drops duplicates and non-positive ids, keeping first-seen order.
func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// mapStoreError translates MySQL constraint violations into API errors.
func mapStoreError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // duplicate key
			return ErrConflict("isbn already exists")
		case 1452: // foreign key constraint fails
			return ErrInvalid("unknown author_id, publisher_id or category_id")
		}
	}
	return err
}

func buildMaterialResponse(r *MaterialRow) MaterialResponse {
	ids := r.CategoryIDs
	if ids == nil {
		ids = []int64{}
	}
	return MaterialResponse{
		MaterialID:      r.MaterialID,
		Title:           r.Title,
		ISBN:            r.ISBN,
		PublicationYear: r.PublicationYear,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		AuthorID:        r.AuthorID,
		Author:          r.AuthorName,
		PublisherID:     r.PublisherID,
		Publisher:       r.PublisherName,
		CategoryIDs:     ids,
	}
}

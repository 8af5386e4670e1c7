package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== in-memory CatalogStore =====

type fakeCatalogStore struct {
	materials   map[int64]*Material
	categories  map[int64][]int64
	activeLoans map[int64]int
	nextID      int64
}

func newFakeStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		materials:   map[int64]*Material{},
		categories:  map[int64][]int64{},
		activeLoans: map[int64]int{},
	}
}

func (f *fakeCatalogStore) ExecCreateMaterial(_ context.Context, m *Material, categoryIDs []int64) error {
	f.nextID++
	m.MaterialID = f.nextID
	cp := *m
	f.materials[m.MaterialID] = &cp
	f.categories[m.MaterialID] = append([]int64{}, categoryIDs...)
	return nil
}

func (f *fakeCatalogStore) ExecUpdateMaterial(_ context.Context, materialID int64, in UpdateMaterialRequest) error {
	m, ok := f.materials[materialID]
	if !ok {
		return ErrNotFound("material not found")
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.TotalCopies != nil {
		newAvailable := m.AvailableCopies + (*in.TotalCopies - m.TotalCopies)
		if newAvailable < 0 {
			return ErrInvalid("total_copies cannot drop below the copies out on loan")
		}
		m.TotalCopies = *in.TotalCopies
		m.AvailableCopies = newAvailable
	}
	if in.CategoryIDs != nil {
		f.categories[materialID] = append([]int64{}, (*in.CategoryIDs)...)
	}
	return nil
}

func (f *fakeCatalogStore) ExecSetCategories(_ context.Context, materialID int64, categoryIDs []int64) error {
	if _, ok := f.materials[materialID]; !ok {
		return ErrNotFound("material not found")
	}
	f.categories[materialID] = append([]int64{}, categoryIDs...)
	return nil
}

func (f *fakeCatalogStore) ExecDeleteMaterial(_ context.Context, materialID int64) error {
	if _, ok := f.materials[materialID]; !ok {
		return ErrNotFound("material not found")
	}
	if n := f.activeLoans[materialID]; n > 0 {
		return ErrHasActiveLoans(n)
	}
	delete(f.materials, materialID)
	delete(f.categories, materialID)
	return nil
}

func (f *fakeCatalogStore) GetMaterial(_ context.Context, materialID int64) (*MaterialRow, error) {
	m, ok := f.materials[materialID]
	if !ok {
		return nil, ErrNotFound("material not found")
	}
	return &MaterialRow{
		Material:    *m,
		CategoryIDs: append([]int64{}, f.categories[materialID]...),
	}, nil
}

func (f *fakeCatalogStore) ListMaterials(_ context.Context, _ Page) ([]MaterialRow, int64, error) {
	var out []MaterialRow
	for id := range f.materials {
		r, _ := f.GetMaterial(context.Background(), id)
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCatalogStore) ListSupport(_ context.Context) (*SupportLists, error) {
	return &SupportLists{}, nil
}

func newTestService(store *fakeCatalogStore) *Service {
	return &Service{store: store}
}

func validCreate() CreateMaterialRequest {
	return CreateMaterialRequest{
		Title:           "Cien años de soledad",
		ISBN:            "978-8437604947",
		PublicationYear: 1967,
		TotalCopies:     3,
		AuthorID:        1,
		PublisherID:     1,
	}
}

// ===== tests =====

func TestCreateMaterialStartsFullyAvailable(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreateMaterial(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCopies)
	assert.Equal(t, 3, res.AvailableCopies)
}

func TestCreateMaterialValidation(t *testing.T) {
	svc := newTestService(newFakeStore())

	tb := []struct {
		name   string
		mutate func(*CreateMaterialRequest)
	}{
		{"missing title", func(r *CreateMaterialRequest) { r.Title = "" }},
		{"missing isbn", func(r *CreateMaterialRequest) { r.ISBN = "" }},
		{"bad year", func(r *CreateMaterialRequest) { r.PublicationYear = 0 }},
		{"negative copies", func(r *CreateMaterialRequest) { r.TotalCopies = -1 }},
		{"missing author", func(r *CreateMaterialRequest) { r.AuthorID = 0 }},
		{"missing publisher", func(r *CreateMaterialRequest) { r.PublisherID = 0 }},
	}

	for _, entry := range tb {
		t.Run(entry.name, func(t *testing.T) {
			req := validCreate()
			entry.mutate(&req)
			_, err := svc.CreateMaterial(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
		})
	}
}

func TestSetCategoriesCollapsesDuplicates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreateMaterial(context.Background(), validCreate())
	require.NoError(t, err)

	err = svc.SetCategories(context.Background(), res.MaterialID, []int64{3, 1, 3, 1, 2})
	require.NoError(t, err)

	got, err := svc.GetMaterial(context.Background(), res.MaterialID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, got.CategoryIDs)
}

func TestSetCategoriesEmptyClears(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	req := validCreate()
	req.CategoryIDs = []int64{1, 2}
	res, err := svc.CreateMaterial(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, res.CategoryIDs)

	err = svc.SetCategories(context.Background(), res.MaterialID, []int64{})
	require.NoError(t, err)

	got, err := svc.GetMaterial(context.Background(), res.MaterialID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryIDs)
}

func TestDeleteMaterialBlockedByActiveLoans(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreateMaterial(context.Background(), validCreate())
	require.NoError(t, err)
	store.activeLoans[res.MaterialID] = 2

	err = svc.DeleteMaterial(context.Background(), res.MaterialID)
	require.Error(t, err)
	api := err.(*APIError)
	assert.Equal(t, CodeHasActiveLoans, api.Code)
	assert.Equal(t, 2, api.ActiveLoans)

	// still there
	_, err = svc.GetMaterial(context.Background(), res.MaterialID)
	assert.NoError(t, err)
}

func TestDeleteMaterialWhenAllCopiesBack(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreateMaterial(context.Background(), validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMaterial(context.Background(), res.MaterialID))

	_, err = svc.GetMaterial(context.Background(), res.MaterialID)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
}

func TestUpdateMaterialTotalCopiesKeepsLoanAccounting(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreateMaterial(context.Background(), validCreate())
	require.NoError(t, err)

	// two copies out on loan
	store.materials[res.MaterialID].AvailableCopies = 1

	five := 5
	got, err := svc.UpdateMaterial(context.Background(), res.MaterialID, UpdateMaterialRequest{TotalCopies: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalCopies)
	assert.Equal(t, 3, got.AvailableCopies)

	// shrinking below the copies out on loan is rejected
	one := 1
	_, err = svc.UpdateMaterial(context.Background(), res.MaterialID, UpdateMaterialRequest{TotalCopies: &one})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

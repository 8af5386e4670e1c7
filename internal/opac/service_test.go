package opac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldTerm(t *testing.T) {
	tb := []struct {
		in   string
		want string
	}{
		{"García Márquez", "garcia marquez"},
		{"Años de Perro", "anos de perro"},
		{"  CIEN AÑOS  ", "cien anos"},
		{"plain ascii", "plain ascii"},
		{"", ""},
		{"   ", ""},
	}

	for _, entry := range tb {
		assert.Equal(t, entry.want, FoldTerm(entry.in), "input %q", entry.in)
	}
}

type fakeSearchStore struct {
	lastTerm     string
	lastCategory *int64
	results      []Result
}

func (f *fakeSearchStore) Search(_ context.Context, term string, categoryID *int64, _ Page) ([]Result, int64, error) {
	f.lastTerm = term
	f.lastCategory = categoryID
	return f.results, int64(len(f.results)), nil
}

func (f *fakeSearchStore) GetMaterial(_ context.Context, materialID int64) (*Result, error) {
	for i := range f.results {
		if f.results[i].MaterialID == materialID {
			return &f.results[i], nil
		}
	}
	return nil, ErrNotFound("material not found")
}

func TestSearchRequiresTermOrCategory(t *testing.T) {
	svc := &Service{store: &fakeSearchStore{}}

	_, _, err := svc.Search(context.Background(), "   ", nil, Page{})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestSearchFoldsTermBeforeQuerying(t *testing.T) {
	store := &fakeSearchStore{}
	svc := &Service{store: store}

	_, _, err := svc.Search(context.Background(), "  GARCÍA ", nil, Page{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, "garcia", store.lastTerm)
}

func TestSearchByCategoryAlone(t *testing.T) {
	store := &fakeSearchStore{results: []Result{{MaterialID: 1, Title: "Cien años de soledad"}}}
	svc := &Service{store: store}

	cat := int64(3)
	items, total, err := svc.Search(context.Background(), "", &cat, Page{Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)
	require.NotNil(t, store.lastCategory)
	assert.EqualValues(t, 3, *store.lastCategory)
}

func TestGetMaterialValidation(t *testing.T) {
	svc := &Service{store: &fakeSearchStore{}}

	_, err := svc.GetMaterial(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

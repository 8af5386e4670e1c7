package catalog

type CreateMaterialRequest struct {
	Title           string  `json:"title" binding:"required"`
	ISBN            string  `json:"isbn" binding:"required"`
	PublicationYear int     `json:"publication_year" binding:"required"`
	TotalCopies     int     `json:"total_copies" binding:"required"`
	AuthorID        int64   `json:"author_id" binding:"required"`
	PublisherID     int64   `json:"publisher_id" binding:"required"`
	CategoryIDs     []int64 `json:"category_ids"`
}

type UpdateMaterialRequest struct {
	Title           *string  `json:"title,omitempty"`
	ISBN            *string  `json:"isbn,omitempty"`
	PublicationYear *int     `json:"publication_year,omitempty"`
	TotalCopies     *int     `json:"total_copies,omitempty"`
	AuthorID        *int64   `json:"author_id,omitempty"`
	PublisherID     *int64   `json:"publisher_id,omitempty"`
	CategoryIDs     *[]int64 `json:"category_ids,omitempty"` // nil leaves the set alone, empty clears it
}

type SetCategoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

type MaterialResponse struct {
	MaterialID      int64   `json:"material_id"`
	Title           string  `json:"title"`
	ISBN            string  `json:"isbn"`
	PublicationYear int     `json:"publication_year"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	AuthorID        int64   `json:"author_id"`
	Author          string  `json:"author,omitempty"`
	PublisherID     int64   `json:"publisher_id"`
	Publisher       string  `json:"publisher,omitempty"`
	CategoryIDs     []int64 `json:"category_ids"`
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

package catalog

// Material is one row of the materials table. available_copies is owned
// exclusively by this row: 0 <= available_copies <= total_copies.
type Material struct {
	MaterialID      int64
	Title           string
	ISBN            string
	PublicationYear int
	TotalCopies     int
	AvailableCopies int
	AuthorID        int64
	PublisherID     int64
}

// MaterialRow is a material joined with its author/publisher names and
// category links for responses.
type MaterialRow struct {
	Material
	AuthorName    string
	PublisherName string
	CategoryIDs   []int64
}

type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SupportLists backs the cataloging form: selectable authors, publishers
// and categories.
type SupportLists struct {
	Authors    []NamedRef `json:"authors"`
	Publishers []NamedRef `json:"publishers"`
	Categories []NamedRef `json:"categories"`
}

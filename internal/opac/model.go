package opac

// Result is the public view of a material: no ids of support tables, no
// stock counts beyond a plain availability flag.
type Result struct {
	MaterialID      int64    `json:"material_id"`
	Title           string   `json:"title"`
	ISBN            string   `json:"isbn"`
	PublicationYear int      `json:"publication_year"`
	Author          string   `json:"author"`
	Publisher       string   `json:"publisher"`
	Available       bool     `json:"available"`
	Categories      []string `json:"categories"`
}

type Page struct {
	Limit  int
	Offset int
}

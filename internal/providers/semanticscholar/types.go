package semanticscholar

// paper is a Graph API paper record, reduced to the fields the engine uses.
type paper struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          int    `json:"year"`
	Venue         string `json:"venue"`
	URL           string `json:"url"`
	Authors       []author       `json:"authors"`
	OpenAccessPdf *openAccessPdf `json:"openAccessPdf"`
}

type author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type openAccessPdf struct {
	URL string `json:"url"`
}

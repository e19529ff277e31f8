package ieee

// searchResponse is the metadata API search envelope.
type searchResponse struct {
	TotalRecords int       `json:"total_records"`
	Articles     []article `json:"articles"`
}

// article is one IEEE Xplore record, reduced to the fields the engine uses.
// The API reports the publication year as a string.
type article struct {
	Title            string `json:"title"`
	Abstract         string `json:"abstract"`
	PublicationTitle string `json:"publication_title"`
	PublicationYear  string `json:"publication_year"`
	PDFURL           string `json:"pdf_url"`
	Authors          struct {
		Authors []struct {
			FullName string `json:"full_name"`
		} `json:"authors"`
	} `json:"authors"`
}

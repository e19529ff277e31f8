package crossref

// worksResponse is the envelope the works endpoint returns.
type worksResponse struct {
	Status  string `json:"status"`
	Message work   `json:"message"`
}

// work is a Crossref work record, reduced to the fields the engine uses.
type work struct {
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	Abstract       string   `json:"abstract"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	Link []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
}

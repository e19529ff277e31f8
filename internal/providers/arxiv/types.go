package arxiv

import "encoding/xml"

// feed is the Atom XML response from the arXiv export API.
type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

// entry is a single paper in the Atom feed.
type entry struct {
	ID         string   `xml:"id"` // "http://arxiv.org/abs/2301.12345v1"
	Title      string   `xml:"title"`
	Summary    string   `xml:"summary"` // abstract
	Published  string   `xml:"published"`
	Authors    []author `xml:"author"`
	Links      []link   `xml:"link"`
	JournalRef string   `xml:"journal_ref"`
}

// author is a paper author in the Atom feed.
type author struct {
	Name string `xml:"name"`
}

// link is a link element in the Atom feed; the pdf link carries
// title="pdf".
type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

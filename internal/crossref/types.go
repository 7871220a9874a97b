package crossref

import "strings"

// Work is the subset of a CrossRef work record used for verification.
type Work struct {
	DOI            string    `json:"DOI"`
	Title          []string  `json:"title"`
	Author         []Person  `json:"author"`
	Published      DateParts `json:"published"`
	Issued         DateParts `json:"issued"`
	ContainerTitle []string  `json:"container-title"`
	Volume         string    `json:"volume"`
	Issue          string    `json:"issue"`
	Page           string    `json:"page"`
	Publisher      string    `json:"publisher"`
	Type           string    `json:"type"`
}

// Person is a CrossRef contributor.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// DateParts holds a CrossRef partial date, e.g. [[2020, 3, 1]].
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}

// Year returns the year of the first date, or 0.
func (d DateParts) Year() int {
	if len(d.Parts) == 0 || len(d.Parts[0]) == 0 {
		return 0
	}
	return d.Parts[0][0]
}

// FirstTitle returns the work's primary title.
func (w *Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Journal returns the primary container title.
func (w *Work) Journal() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

// Year returns the publication year, falling back to the issue date.
func (w *Work) Year() int {
	if y := w.Published.Year(); y != 0 {
		return y
	}
	return w.Issued.Year()
}

// Authors formats the contributors as an " and "-joined BibTeX author list
// in "Given Family" order.
func (w *Work) Authors() string {
	var names []string
	for _, a := range w.Author {
		switch {
		case a.Given != "" && a.Family != "":
			names = append(names, a.Given+" "+a.Family)
		case a.Family != "":
			names = append(names, a.Family)
		}
	}
	return strings.Join(names, " and ")
}

// workResponse is the envelope of /works/{doi}.
type workResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// searchResponse is the envelope of /works?query=...
type searchResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}

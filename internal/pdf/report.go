package pdf

// Entry is one titled block of a report.
type Entry struct {
	Title string
	Body  string
}

// Report is an ordered list of entries rendered under a common page header.
type Report struct {
	Heading string
	Entries []Entry
}

func NewReport(heading string) *Report {
	return &Report{Heading: heading}
}

func (r *Report) Add(title, body string) {
	r.Entries = append(r.Entries, Entry{Title: title, Body: body})
}

func (r *Report) Len() int {
	return len(r.Entries)
}

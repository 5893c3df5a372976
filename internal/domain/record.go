package domain

// RawRecord is one scraped applicant entry before cleaning.
// The listing parser fills the identity and decision fields; the detail
// stage fills the rest in place. Empty string means "not provided" for
// every text field; International stays nil until a detail page says
// otherwise.
//
// EntryURL, once canonicalized, is the sole identity key: dedup inside a
// run and the store's uniqueness constraint both key on it.
type RawRecord struct {
	Program       string `json:"program_name_raw"`
	University    string `json:"university_raw"`
	Comments      string `json:"comments"`
	DatePosted    string `json:"date_posted"`
	EntryURL      string `json:"entry_url"`
	Status        string `json:"applicant_status"`
	AcceptedDate  string `json:"accepted_date"`
	RejectedDate  string `json:"rejected_date"`
	StartTerm     string `json:"start_term"`
	StartYear     string `json:"start_year"`
	International *bool  `json:"is_international"`
	GRETotal      string `json:"gre_total"`
	GREVerbal     string `json:"gre_v"`
	GREAW         string `json:"gre_aw"`
	Degree        string `json:"degree"`
	DegreeLevel   string `json:"degree_level"`
	GPA           string `json:"gpa"`
	SourceURL     string `json:"source_url"`
	ScrapedAt     string `json:"scraped_at"`
}

// NormalizedRecord is the fixed output schema read by the loader and the
// downstream analytics layer. Empty string means NULL; Nationality is one
// of "International", "American" or empty, never a raw boolean.
type NormalizedRecord struct {
	Program      string `json:"program"`
	University   string `json:"university"`
	Comments     string `json:"comments"`
	DatePosted   string `json:"date_posted"`
	EntryURL     string `json:"entry_url"`
	Status       string `json:"applicant_status"`
	AcceptedDate string `json:"accepted_date"`
	RejectedDate string `json:"rejected_date"`
	StartTerm    string `json:"start_term"`
	StartYear    string `json:"start_year"`
	Nationality  string `json:"us_or_international"`
	GRETotal     string `json:"gre_total"`
	GREVerbal    string `json:"gre_v"`
	GREAW        string `json:"gre_aw"`
	DegreeLevel  string `json:"degree_level"`
	Degree       string `json:"degree"`
	GPA          string `json:"gpa"`
	SourceURL    string `json:"source_url"`
	ScrapedAt    string `json:"scraped_at"`
}

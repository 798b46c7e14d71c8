package terms

// Term is a canonical skill entity. Pre-existing in the system; this
// service only reads it.
type Term struct {
	ID   string
	Name string
}

// UserTerm associates a matched canonical term with a user's certificate.
type UserTerm struct {
	ID            string
	UserID        string
	TermID        string
	CertificateID string
	MatchCount    int
}

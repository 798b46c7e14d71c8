package certificates

import "time"

// Certificate is one uploaded certificate file moving through the
// ingestion-and-verification pipeline. Only the pipeline mutates it.
type Certificate struct {
	ID               string
	UserID           string
	OriginalFilename string
	Extension        string
	MimeType         string
	Checksum         string
	FileName         string // generated random storage name, without extension
	CourseURL        string
	CourseTitle      string // decoded
	ImageIcon        []byte // nil when thumbnailing failed
	GeneralStatus    GeneralStatus
	DetailedStatus   DetailedStatus // empty unless rejected or pending with a known defect
	FrontStatus      FrontStatus    // empty until terminal resolution
	CreatedAt        time.Time
}

// StoredName is the on-disk file name: {random}.{extension}.
func (c Certificate) StoredName() string {
	if c.Extension == "" {
		return c.FileName
	}
	return c.FileName + "." + c.Extension
}

// Upload is the inbound payload handed to the pipeline by the HTTP layer.
type Upload struct {
	UserID      string
	Title       string // possibly base64+percent encoded
	CourseURL   string
	FileName    string
	ContentType string
	Content     []byte
}

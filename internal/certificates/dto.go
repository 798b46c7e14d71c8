package certificates

import "time"

// certificateResponse is the API shape of one certificate.
type certificateResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	Extension        string    `json:"extension"`
	CourseURL        string    `json:"courseUrl"`
	CourseTitle      string    `json:"courseTitle"`
	GeneralStatus    string    `json:"generalStatus"`
	DetailedStatus   string    `json:"detailedStatus,omitempty"`
	FrontStatus      string    `json:"frontStatus,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toResponse(cert Certificate) certificateResponse {
	return certificateResponse{
		ID:               cert.ID,
		OriginalFilename: cert.OriginalFilename,
		Extension:        cert.Extension,
		CourseURL:        cert.CourseURL,
		CourseTitle:      cert.CourseTitle,
		GeneralStatus:    string(cert.GeneralStatus),
		DetailedStatus:   string(cert.DetailedStatus),
		FrontStatus:      string(cert.FrontStatus),
		CreatedAt:        cert.CreatedAt,
	}
}

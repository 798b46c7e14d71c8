package certificates

import "certificate-backend/internal/validation"

// GeneralStatus is the top-level pipeline outcome dimension.
type GeneralStatus string

const (
	StatusVerifying GeneralStatus = "VERIFYING"
	StatusVerified  GeneralStatus = "VERIFIED"
	StatusRejected  GeneralStatus = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s GeneralStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// DetailedStatus is the defect code explaining a rejected or pending state.
type DetailedStatus string

const (
	DetailedNone                DetailedStatus = ""
	DetailedExtensionNotAllowed DetailedStatus = "EXTENSION_NOT_ALLOWED"
	DetailedImageIconError      DetailedStatus = "IMAGE_ICON_ERROR"
	DetailedFilePathError       DetailedStatus = "FILE_PATH_ERROR"
	DetailedVerifyTimeout       DetailedStatus = "VERIFICATION_TIMEOUT"
)

// FrontStatus is the status dimension shown to end users. It mirrors the
// detailed status while pending or failed, and becomes SUCCESS only when
// the general status reaches VERIFIED.
type FrontStatus string

const (
	FrontNone    FrontStatus = ""
	FrontSuccess FrontStatus = "SUCCESS"
)

// CanTransition reports whether the general status may move from one state
// to another. Transitions are one-directional; terminal states never leave.
func CanTransition(from, to GeneralStatus) bool {
	if from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusVerified, StatusRejected:
		return from == StatusVerifying
	default:
		return false
	}
}

// DetailedFromRejection maps a validation rejection onto a detailed status.
func DetailedFromRejection(r validation.Rejection) DetailedStatus {
	switch r {
	case validation.RejectionExtension:
		return DetailedExtensionNotAllowed
	case validation.RejectionIcon:
		return DetailedImageIconError
	default:
		return DetailedNone
	}
}

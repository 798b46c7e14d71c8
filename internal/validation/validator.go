package validation

import (
	"errors"
	"image"
	"path/filepath"
	"strings"

	"certificate-backend/internal/shared/util"
)

const storageNameLength = 20

// allowedExtensions is the certificate upload allow-list.
var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
}

// Rejection classifies why a file failed validation.
type Rejection string

const (
	RejectionNone      Rejection = ""
	RejectionExtension Rejection = "EXTENSION_NOT_ALLOWED"
	RejectionIcon      Rejection = "IMAGE_ICON_ERROR"
)

// Result is everything validation derives from an uploaded file.
type Result struct {
	Extension   string
	MimeType    string
	Checksum    string
	StorageName string
	Icon        []byte
	Rejection   Rejection
}

// Accepted reports whether the file passed validation.
func (r Result) Accepted() bool { return r.Rejection == RejectionNone }

// Inspect derives extension, checksum, storage name, and thumbnail from an
// uploaded file. It is a pure function of its inputs: no side effects.
//
// The extension check and the thumbnail attempt are independent. The
// thumbnail is attempted even for a disallowed extension, and a disallowed
// extension is reported even if thumbnailing succeeded; when both fail the
// extension rejection wins.
func Inspect(content []byte, fileName, contentType string, iconSize image.Point) Result {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")

	res := Result{
		Extension:   ext,
		MimeType:    contentType,
		Checksum:    util.Checksum(content),
		StorageName: util.RandomName(storageNameLength),
	}

	icon, err := RenderIcon(content, ext, iconSize)
	switch {
	case err == nil:
		res.Icon = icon
	case errors.Is(err, ErrUnsupported):
		res.Rejection = RejectionExtension
	default:
		res.Rejection = RejectionIcon
	}

	if _, ok := allowedExtensions[strings.ToLower(ext)]; !ok {
		res.Rejection = RejectionExtension
	}

	return res
}

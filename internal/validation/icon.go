package validation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // decode png payloads carrying a jpg extension
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"
)

// ErrUnsupported means the extension is outside what the icon renderer handles.
var ErrUnsupported = errors.New("unsupported icon source")

const iconJPEGQuality = 85

// RenderIcon produces a preview thumbnail of exactly size pixels, JPEG
// encoded. PDFs contribute only their first page; raster images are decoded
// directly. The JPEG encoder is not guaranteed byte-deterministic, so
// callers comparing repeated runs should compare dimensions, not bytes.
func RenderIcon(content []byte, ext string, size image.Point) ([]byte, error) {
	var (
		src image.Image
		err error
	)

	switch strings.ToLower(ext) {
	case "pdf":
		src, err = renderPDFFirstPage(content)
	case "jpg", "jpeg", "png":
		src, _, err = image.Decode(bytes.NewReader(content))
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	resized := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: iconJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDFFirstPage(content []byte) (image.Image, error) {
	// Cheap structural check before handing the bytes to the rasterizer.
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render pdf page: %w", err)
	}
	return img, nil
}

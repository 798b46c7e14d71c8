package validation

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var iconSize = image.Point{X: 100, Y: 100}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestInspectAcceptsWellFormedJPEG(t *testing.T) {
	content := jpegBytes(t, 640, 480)
	res := Inspect(content, "diploma.jpg", "image/jpeg", iconSize)

	require.True(t, res.Accepted(), "rejection: %s", res.Rejection)
	assert.Equal(t, "jpg", res.Extension)
	assert.Len(t, res.StorageName, 20)
	assert.Len(t, res.Checksum, 32)
	require.NotNil(t, res.Icon)

	icon, err := jpeg.Decode(bytes.NewReader(res.Icon))
	require.NoError(t, err)
	assert.Equal(t, 100, icon.Bounds().Dx())
	assert.Equal(t, 100, icon.Bounds().Dy())
}

func TestInspectExtensionCaseInsensitive(t *testing.T) {
	content := jpegBytes(t, 64, 64)
	res := Inspect(content, "diploma.JPEG", "image/jpeg", iconSize)
	require.True(t, res.Accepted())
	assert.Equal(t, "JPEG", res.Extension)
}

func TestInspectRejectsDisallowedExtensionRegardlessOfContent(t *testing.T) {
	cases := map[string][]byte{
		"report.docx": []byte("not a certificate"),
		"photo.png":   jpegBytes(t, 32, 32), // png ext is outside the allow-list even with decodable bytes
		"cert.txt":    nil,
	}
	for name, content := range cases {
		res := Inspect(content, name, "application/octet-stream", iconSize)
		assert.Equal(t, RejectionExtension, res.Rejection, "file %s", name)
	}
}

func TestInspectRejectsCorruptImage(t *testing.T) {
	res := Inspect([]byte("definitely not a jpeg"), "cert.jpg", "image/jpeg", iconSize)
	assert.Equal(t, RejectionIcon, res.Rejection)
	assert.Nil(t, res.Icon)
}

func TestInspectCorruptPDFReportsIconError(t *testing.T) {
	res := Inspect([]byte("%PDF-garbage"), "cert.pdf", "application/pdf", iconSize)
	assert.Equal(t, RejectionIcon, res.Rejection)
}

func TestInspectExtensionWinsOverIconError(t *testing.T) {
	// Corrupt bytes and a bad extension: extension check takes precedence.
	res := Inspect([]byte("garbage"), "cert.bmp", "image/bmp", iconSize)
	assert.Equal(t, RejectionExtension, res.Rejection)
}

func TestIconDimensionsIdempotent(t *testing.T) {
	content := jpegBytes(t, 200, 150)

	first, err := RenderIcon(content, "jpg", iconSize)
	require.NoError(t, err)
	second, err := RenderIcon(content, "jpg", iconSize)
	require.NoError(t, err)

	a, err := jpeg.Decode(bytes.NewReader(first))
	require.NoError(t, err)
	b, err := jpeg.Decode(bytes.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, a.Bounds(), b.Bounds())
}

func TestInspectChecksumMatchesContent(t *testing.T) {
	content := jpegBytes(t, 48, 48)
	first := Inspect(content, "a.jpg", "image/jpeg", iconSize)
	second := Inspect(content, "b.jpg", "image/jpeg", iconSize)
	assert.Equal(t, first.Checksum, second.Checksum)
	assert.NotEqual(t, first.StorageName, second.StorageName)
}

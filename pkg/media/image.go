package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"
)

// MaxDimension is the largest side sent to the vision endpoint. Bigger
// images are downscaled to keep request bodies and token costs sane.
const MaxDimension = 2048

const jpegQuality = 85

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// IsImageFilename reports whether the filename looks like a supported image.
func IsImageFilename(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DataURI converts raw image bytes into a base64 data URI for multimodal
// prompts. Decodable images with a side over MaxDimension are fitted and
// re-encoded as JPEG; anything else passes through with its sniffed MIME type.
func DataURI(data []byte) string {
	mime := sniffMIME(data)

	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		bounds := img.Bounds()
		if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
			fitted := imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: jpegQuality}); err == nil {
				data = buf.Bytes()
				mime = "image/jpeg"
			}
		}
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func sniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		// The vision endpoint tolerates a wrong subtype better than an
		// application/octet-stream part.
		return "image/jpeg"
	}
	return mime
}

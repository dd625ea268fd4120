package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFilename(t *testing.T) {
	assert.True(t, IsImageFilename("photo.PNG"))
	assert.True(t, IsImageFilename("a.jpg"))
	assert.True(t, IsImageFilename("b.jpeg"))
	assert.True(t, IsImageFilename("c.webp"))
	assert.True(t, IsImageFilename("d.gif"))
	assert.False(t, IsImageFilename("doc.pdf"))
	assert.False(t, IsImageFilename("archive.zip"))
	assert.False(t, IsImageFilename("noext"))
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestDataURI_SmallImagePassesThrough(t *testing.T) {
	data := encodePNG(t, 10, 10)

	uri := DataURI(data)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDataURI_OversizedImageIsDownscaled(t *testing.T) {
	data := encodePNG(t, MaxDimension+100, 50)

	uri := DataURI(data)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), MaxDimension)
	assert.LessOrEqual(t, img.Bounds().Dy(), MaxDimension)
}

func TestDataURI_NonImageBytesFallBack(t *testing.T) {
	uri := DataURI([]byte("definitely not an image"))
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

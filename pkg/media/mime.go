package media

import (
	"encoding/base64"
	"mime"
	"path/filepath"
	"strings"
)

// DefaultMIMEType is assumed when the extension does not identify the image.
const DefaultMIMEType = "image/jpeg"

// DetectMIME maps the file extension of path to a media type.
func DetectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultMIMEType
	}

	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil || mediaType == "" {
		return DefaultMIMEType
	}

	return mediaType
}

// DataURI encodes data as data:<mime>;base64,<payload>.
func DataURI(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultMIMEType
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))

	return b.String()
}

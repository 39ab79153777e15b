package utils

import (
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// GetMimeType determines the MIME type from file contents
func GetMimeType(buffer []byte) string {
	return http.DetectContentType(buffer)
}

// IsSupportedImage reports whether the leading bytes of a file look like an
// image format NormalizeImage can decode.
func IsSupportedImage(header []byte) bool {
	mimeType := GetMimeType(header)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return supportedImageTypes[mimeType]
}

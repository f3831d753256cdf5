package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	_ "golang.org/x/image/webp"
)

// Regex to match data URL pattern
var dataURLPattern = regexp.MustCompile(`data:image/([^;]+);base64,(.*)`)

const maxReferenceImageBytes = 10 * 1024 * 1024

// DecodeDataURL splits a data URL into mime type and raw bytes.
func DecodeDataURL(url string) (mimeType string, data []byte, err error) {
	matches := dataURLPattern.FindStringSubmatch(url)
	if len(matches) != 3 {
		return "", nil, errors.New("not a data URL")
	}
	mimeType = "image/" + matches[1]
	data, err = base64.StdEncoding.DecodeString(matches[2])
	return mimeType, data, err
}

// ValidateReference sanity-checks a reference image before it is sent to a
// provider: it must be an http(s) URL or a decodable data URL within the size
// limit. Returns width/height (0,0 for plain URLs, which are fetched by the
// provider itself).
func ValidateReference(url string) (width int, height int, err error) {
	if url == "" {
		return 0, 0, errors.New("reference image is empty")
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return 0, 0, nil
	}
	_, data, err := DecodeDataURL(url)
	if err != nil {
		return 0, 0, err
	}
	if len(data) > maxReferenceImageBytes {
		return 0, 0, errors.New("reference image too large")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

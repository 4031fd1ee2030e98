package palette

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// LoadImage reads an image from a data URI or a file path. The MIME type is
// taken from the data URI when it declares one and sniffed otherwise.
func LoadImage(src string) (string, []byte, error) {
	if strings.HasPrefix(src, "data:") {
		return ParseDataURI(src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	return mimetype.Detect(data).String(), data, nil
}

// ParseDataURI decodes data:<mime>;base64,<payload>.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI: missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI: missing payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI: payload is not base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URI: %w", err)
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return mimeType, data, nil
}

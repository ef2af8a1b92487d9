package utils

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// -----------------------------------------------------------------------------

// SaveBase64Image decodes a data-URL logo and writes it under dir using the
// symbol as filename. Returns the relative path served to clients.
func SaveBase64Image(dir string, symbol string, dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return "", fmt.Errorf("not a data URL")
	}

	sep := strings.Index(dataURL, ",")
	if sep < 0 {
		return "", fmt.Errorf("malformed data URL")
	}

	header := dataURL[:sep]
	ext := "png"
	if strings.Contains(header, "image/jpeg") || strings.Contains(header, "image/jpg") {
		ext = "jpg"
	} else if strings.Contains(header, "image/svg") {
		ext = "svg"
	} else if strings.Contains(header, "image/gif") {
		ext = "gif"
	} else if strings.Contains(header, "image/webp") {
		ext = "webp"
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[sep+1:])
	if err != nil {
		return "", fmt.Errorf("failed to decode image data: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}

	name := fmt.Sprintf("%s.%s", strings.ToUpper(symbol), ext)
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return "/images/" + name, nil
}

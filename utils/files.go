package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps every accepted attachment at 10 MB.
const MaxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// ValidateUpload checks an attachment name and size against the whitelist and cap.
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("نوع الملف غير مسموح: %s", ext)
	}
	if size > MaxUploadBytes {
		return errors.New("حجم الملف يتجاوز الحد الأقصى 10 ميجابايت")
	}
	return nil
}

// DecodeDataURL turns a base64 data URL ("data:image/png;base64,....") into
// raw bytes plus a file extension. Signature pads submit their strokes this way.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, "", errors.New("not a data URL")
	}
	comma := strings.Index(dataURL, ",")
	if comma < 0 {
		return nil, "", errors.New("malformed data URL")
	}
	header := dataURL[5:comma]
	payload := dataURL[comma+1:]

	ext := ".png"
	switch {
	case strings.HasPrefix(header, "image/jpeg"):
		ext = ".jpg"
	case strings.HasPrefix(header, "image/gif"):
		ext = ".gif"
	case strings.HasPrefix(header, "image/webp"):
		ext = ".webp"
	case strings.HasPrefix(header, "application/pdf"):
		ext = ".pdf"
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	if int64(len(raw)) > MaxUploadBytes {
		return nil, "", errors.New("حجم الملف يتجاوز الحد الأقصى 10 ميجابايت")
	}
	return raw, ext, nil
}

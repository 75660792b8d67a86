package utils

import (
	"encoding/base64"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		ok       bool
	}{
		{"jpg allowed", "photo.jpg", 1024, true},
		{"uppercase extension", "scan.PDF", 1024, true},
		{"png allowed", "diagram.png", 1024, true},
		{"executable rejected", "malware.exe", 1024, false},
		{"no extension rejected", "file", 1024, false},
		{"oversized rejected", "photo.jpg", MaxUploadBytes + 1, false},
		{"exactly at cap allowed", "photo.jpg", MaxUploadBytes, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.size)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateUpload(%q, %d) error = %v, expected ok=%v", tt.filename, tt.size, err, tt.ok)
			}
		})
	}
}

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("signature-bytes"))

	raw, ext, err := DecodeDataURL("data:image/png;base64," + payload)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if string(raw) != "signature-bytes" {
		t.Errorf("unexpected payload %q", raw)
	}
	if ext != ".png" {
		t.Errorf("expected .png, got %s", ext)
	}

	if _, ext, _ := DecodeDataURL("data:image/jpeg;base64," + payload); ext != ".jpg" {
		t.Errorf("expected .jpg for jpeg header, got %s", ext)
	}

	if _, _, err := DecodeDataURL("plain string"); err == nil {
		t.Error("expected error for non data URL")
	}
	if _, _, err := DecodeDataURL("data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for bad base64")
	}
}

package proof

import (
	"fmt"
	"strings"
)

// MaxAssetBytes is the largest proof image accepted for upload.
const MaxAssetBytes = 5 * 1024 * 1024

// Source names the device capability an asset is captured from.
type Source int

const (
	SourceCamera Source = iota
	SourceGallery
)

func (s Source) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourceGallery:
		return "gallery"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Asset is a captured or selected proof image.
type Asset struct {
	URI       string
	MimeType  string
	SizeBytes int64
	FileName  string
}

// ValidationError explains why an asset was rejected.
type ValidationError struct {
	Title  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", strings.ToLower(e.Title), e.Reason)
}

// Validate checks that a is an image no larger than MaxAssetBytes.
func Validate(a Asset) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MimeType)), "image/") {
		return &ValidationError{Title: "Invalid file", Reason: "Only image files are allowed."}
	}
	if a.SizeBytes > MaxAssetBytes {
		return &ValidationError{Title: "File too large", Reason: "Please use an image under 5MB."}
	}
	return nil
}

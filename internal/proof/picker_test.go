package proof

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestFilePicker_PicksStagedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "door.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var p FilePicker
	p.Stage("  " + path + "  ")
	granted, err := p.RequestPermission(context.Background(), SourceGallery)
	if err != nil || !granted {
		t.Fatalf("RequestPermission = %v, %v", granted, err)
	}
	asset, err := p.Pick(context.Background(), SourceGallery)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if asset.MimeType != "image/png" {
		t.Fatalf("MimeType = %q, want image/png", asset.MimeType)
	}
	if asset.SizeBytes != int64(len(pngHeader)) || asset.FileName != "door.png" {
		t.Fatalf("asset = %#v", asset)
	}
	if !strings.HasPrefix(asset.URI, "file://") || LocalPath(asset.URI) != path {
		t.Fatalf("URI = %q, want file:// + %q", asset.URI, path)
	}
	if err := Validate(asset); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if _, err := p.Pick(context.Background(), SourceGallery); !errors.Is(err, ErrPickCanceled) {
		t.Fatalf("second Pick error = %v, want ErrPickCanceled", err)
	}
}

func TestFilePicker_TextFileFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello rider"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var p FilePicker
	p.Stage(path)
	asset, err := p.Pick(context.Background(), SourceCamera)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if err := Validate(asset); err == nil {
		t.Fatalf("Validate accepted %q", asset.MimeType)
	}
}

func TestFilePicker_MissingFile(t *testing.T) {
	var p FilePicker
	p.Stage(filepath.Join(t.TempDir(), "missing.jpg"))
	if _, err := p.Pick(context.Background(), SourceCamera); err == nil {
		t.Fatal("Pick returned nil error for missing file")
	}
}

func TestValidate_Boundary(t *testing.T) {
	if err := Validate(Asset{MimeType: "image/jpeg", SizeBytes: MaxAssetBytes}); err != nil {
		t.Fatalf("Validate rejected exactly 5MB: %v", err)
	}
	if err := Validate(Asset{MimeType: "IMAGE/JPEG", SizeBytes: 1}); err != nil {
		t.Fatalf("Validate should accept uppercase MIME: %v", err)
	}
	if err := Validate(Asset{MimeType: "image/jpeg", SizeBytes: MaxAssetBytes + 1}); err == nil {
		t.Fatal("Validate accepted 5MB + 1")
	}
}

package proof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrPermissionDenied is returned when the capability prompt is refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPickCanceled is returned when the rider dismisses the picker.
	ErrPickCanceled = errors.New("selection canceled")
)

// Picker acquires a device capability and returns the asset the rider chose.
type Picker interface {
	RequestPermission(ctx context.Context, src Source) (bool, error)
	Pick(ctx context.Context, src Source) (Asset, error)
}

// FilePicker stands in for the camera and gallery on a terminal: the rider
// stages a local file path, and Pick describes that file.
type FilePicker struct {
	mu     sync.Mutex
	staged string
}

// Stage sets the path returned by the next Pick.
func (p *FilePicker) Stage(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = strings.TrimSpace(path)
}

// RequestPermission always grants access; file reads are checked in Pick.
func (p *FilePicker) RequestPermission(ctx context.Context, src Source) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

// Pick returns the staged file as an Asset. The staged path is consumed.
func (p *FilePicker) Pick(ctx context.Context, src Source) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	p.mu.Lock()
	path := p.staged
	p.staged = ""
	p.mu.Unlock()

	if path == "" {
		return Asset{}, ErrPickCanceled
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Asset{}, fmt.Errorf("resolve proof path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Asset{}, fmt.Errorf("stat proof: %w", err)
	}
	if info.IsDir() {
		return Asset{}, fmt.Errorf("proof path %q is a directory", abs)
	}
	mimeType, err := detectMimeType(abs)
	if err != nil {
		return Asset{}, err
	}
	return Asset{
		URI:       "file://" + abs,
		MimeType:  mimeType,
		SizeBytes: info.Size(),
		FileName:  filepath.Base(abs),
	}, nil
}

func detectMimeType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open proof: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read proof: %w", err)
	}
	sniffed := http.DetectContentType(head[:n])
	if sniffed != "application/octet-stream" {
		return strings.TrimSpace(strings.Split(sniffed, ";")[0]), nil
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return strings.TrimSpace(strings.Split(byExt, ";")[0]), nil
	}
	return sniffed, nil
}

// LocalPath strips the file:// scheme from an asset URI.
func LocalPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

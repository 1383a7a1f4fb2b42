package rider

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/five82/courier/internal/proof"
)

// ProofField is the multipart field carrying the proof image.
const ProofField = "proof"

var _ proof.Uploader = (*Client)(nil)

// UploadProof streams asset as multipart/form-data to the order's
// delivery-proof endpoint. progress receives cumulative bytes sent against the
// full body size. Cancelling ctx aborts the body on its next read.
func (c *Client) UploadProof(ctx context.Context, orderID string, asset proof.Asset, progress proof.ProgressFunc) error {
	if err := requireID(orderID); err != nil {
		return err
	}
	file, err := os.Open(proof.LocalPath(asset.URI))
	if err != nil {
		return fmt.Errorf("open proof: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat proof: %w", err)
	}

	body, contentType, total, err := multipartBody(file, info.Size(), proofFileName(asset), asset.MimeType)
	if err != nil {
		return err
	}
	reader := &progressReader{ctx: ctx, r: body, total: total, report: progress}
	rel, err := relURL(orderPath(orderID, "/delivery-proof"))
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, rel, reader, contentType, nil)
}

// multipartBody frames file as a single-part form. The header and trailer are
// rendered up front so the total size is known before streaming.
func multipartBody(file io.Reader, size int64, fileName, mimeType string) (io.Reader, string, int64, error) {
	var head strings.Builder
	mw := multipart.NewWriter(&head)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ProofField, fileName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, "", 0, fmt.Errorf("build multipart: %w", err)
	}
	header := head.String()
	trailer := "\r\n--" + mw.Boundary() + "--\r\n"

	body := io.MultiReader(strings.NewReader(header), file, strings.NewReader(trailer))
	total := int64(len(header)) + size + int64(len(trailer))
	return body, mw.FormDataContentType(), total, nil
}

func proofFileName(asset proof.Asset) string {
	if name := strings.TrimSpace(asset.FileName); name != "" {
		return name
	}
	return "proof-" + uuid.NewString() + ".jpg"
}

type progressReader struct {
	ctx    context.Context
	r      io.Reader
	total  int64
	sent   atomic.Int64
	report proof.ProgressFunc
}

func (p *progressReader) Size() int64 { return p.total }

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		sent := p.sent.Add(int64(n))
		if p.report != nil {
			p.report(sent, p.total)
		}
	}
	return n, err
}

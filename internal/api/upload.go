package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// UploadFile is one file in a bulk upload.
type UploadFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// BulkUpload submits the batch as one multipart request. The backend accepts
// the upload before analysis finishes; callers poll RecentFilesAnalyzed to
// learn when captioning is done. The body is streamed through a pipe so a
// large batch never has to fit in memory.
func (c *Client) BulkUpload(ctx context.Context, files []UploadFile) (*BulkUploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", ErrValidation)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// The request must exist before the writer goroutine starts: if it
	// cannot be built (no usable token, say) nothing would ever read the
	// pipe and the writer would block forever.
	req, err := c.newRequest(ctx, http.MethodPost, "/files/bulk-upload", pr, true)
	if err != nil {
		_ = pw.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	go func() {
		err := writeParts(writer, files)
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	var result BulkUploadResult
	if err := c.doEnvelope(req, "bulk upload", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func writeParts(writer *multipart.Writer, files []UploadFile) error {
	for _, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = sniffContentType(file.Name)
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Name))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create part for %s: %w", file.Name, err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("copy %s: %w", file.Name, err)
		}
	}
	return nil
}

func sniffContentType(name string) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

package uploader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lenscap/internal/api"
	"lenscap/internal/validate"
)

// Limits bounds what a batch accepts; values come from the upload config
// section.
type Limits struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// Item is one selected file, alive only for the duration of a batch.
type Item struct {
	LocalID string
	Path    string
	Name    string
	Size    int64
}

// Batch is an ephemeral set of files selected for one bulk upload. It is
// destroyed after processing; nothing about it is persisted. The ID ties
// log lines from one upload together.
type Batch struct {
	ID    string
	Items []Item
}

// NewBatch validates the selected files and assigns each a local ID. Every
// invalid file is reported; a batch with any invalid file is rejected so the
// caller can surface the full list inline before anything touches the
// network.
func NewBatch(paths []string, limits Limits) (*Batch, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files selected", api.ErrValidation)
	}

	allowed := make(map[string]struct{}, len(limits.AllowedExtensions))
	for _, ext := range limits.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	batch := &Batch{
		ID:    uuid.New().String(),
		Items: make([]Item, 0, len(paths)),
	}
	var problems []string
	for _, path := range paths {
		name := validate.SanitizeFileName(filepath.Base(path))

		if len(allowed) > 0 {
			ext := strings.ToLower(filepath.Ext(name))
			if _, ok := allowed[ext]; !ok {
				problems = append(problems, fmt.Sprintf("%s: extension %q not allowed", name, ext))
				continue
			}
		}

		info, err := os.Stat(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if info.IsDir() {
			problems = append(problems, fmt.Sprintf("%s: is a directory", name))
			continue
		}
		if limits.MaxFileSize > 0 && info.Size() > limits.MaxFileSize {
			problems = append(problems, fmt.Sprintf("%s: %d bytes exceeds limit of %d", name, info.Size(), limits.MaxFileSize))
			continue
		}

		batch.Items = append(batch.Items, Item{
			LocalID: uuid.New().String(),
			Path:    path,
			Name:    name,
			Size:    info.Size(),
		})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", api.ErrValidation, strings.Join(problems, "; "))
	}
	return batch, nil
}

// Open prepares the upload payload. The returned closer must be called once
// the upload request has finished.
func (b *Batch) Open() ([]api.UploadFile, io.Closer, error) {
	files := make([]api.UploadFile, 0, len(b.Items))
	closers := make(closeGroup, 0, len(b.Items))

	for _, item := range b.Items {
		handle, err := os.Open(item.Path)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("open %s: %w", item.Name, err)
		}
		closers = append(closers, handle)
		files = append(files, api.UploadFile{Name: item.Name, Reader: handle})
	}
	return files, closers, nil
}

type closeGroup []io.Closer

func (g closeGroup) Close() error {
	var errs []error
	for _, c := range g {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

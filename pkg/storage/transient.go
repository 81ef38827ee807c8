package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-form-mailer/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrFileReleased is returned by Read when the stored file no longer exists
	ErrFileReleased = errors.New("stored file no longer exists")
	// ErrOutsideScratchDir guards Release against paths it never created
	ErrOutsideScratchDir = errors.New("path is outside the scratch directory")
)

// TransientStore keeps uploads on local disk for the duration of one request.
// Stored names are "<uuid>-<original base name>" so concurrent uploads never collide.
type TransientStore struct {
	dir string
}

var _ domain.FileStore = (*TransientStore)(nil) // Compile-time interface check

// NewTransientStore creates the scratch directory if needed
func NewTransientStore(dir string) (*TransientStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve scratch dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &TransientStore{dir: abs}, nil
}

// Dir returns the absolute scratch directory
func (s *TransientStore) Dir() string {
	return s.dir
}

// Store writes blob to the scratch directory. A failed write leaves nothing behind.
func (s *TransientStore) Store(ctx context.Context, blob io.Reader, originalName, mimeType string) (*domain.UploadedFile, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+"-"+safeBaseName(originalName))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}

	n, copyErr := io.Copy(f, &contextReader{ctx: ctx, r: blob})
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write stored file: %w", err)
	}

	return &domain.UploadedFile{
		OriginalName: originalName,
		MIMEType:     mimeType,
		SizeBytes:    n,
		StoragePath:  path,
	}, nil
}

// Read returns the stored bytes. Reading a released file is a caller bug and fails with ErrFileReleased.
func (s *TransientStore) Read(file *domain.UploadedFile) ([]byte, error) {
	if file == nil {
		return nil, fmt.Errorf("read stored file: %w", ErrFileReleased)
	}
	data, err := os.ReadFile(file.StoragePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(file.StoragePath), ErrFileReleased)
	}
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return data, nil
}

// Release deletes the stored file. Missing files are not an error.
func (s *TransientStore) Release(file *domain.UploadedFile) error {
	if file == nil || file.StoragePath == "" {
		return nil
	}
	if !s.owns(file.StoragePath) {
		return fmt.Errorf("release %q: %w", file.StoragePath, ErrOutsideScratchDir)
	}
	if err := os.Remove(file.StoragePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release stored file: %w", err)
	}
	return nil
}

// Sweep removes regular files older than maxAge, left behind by a process that died mid-request.
// It returns the number of files removed.
func (s *TransientStore) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list scratch dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *TransientStore) owns(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == s.dir
}

// safeBaseName strips any directory part a client may have sent with the filename
func safeBaseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

// contextReader stops a copy once the request context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

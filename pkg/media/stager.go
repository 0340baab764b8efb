package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	stagedFilePrefix = "photo-"
	defaultExt       = ".jpg"
)

// PhotoRef points at photo content held by the chat transport.
type PhotoRef struct {
	FileID   string
	FileName string
}

// RemoteFile is the transport's answer to a photo reference.
type RemoteFile struct {
	// Path is the transport-side path; only its extension is used.
	Path string
	Data []byte
}

// Fetcher resolves a transport file id to its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) (RemoteFile, error)
}

// StagedImage is a local copy of one inbound photo, owned by one operation.
type StagedImage struct {
	Path     string
	MIMEType string
	Size     int
}

// Release deletes the staged file. Calling it more than once is safe.
func (s *StagedImage) Release() error {
	if s == nil || s.Path == "" {
		return nil
	}

	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StageError{Op: OpRelease, Err: err}
	}

	return nil
}

// Stager writes inbound photos to uniquely named files under one directory.
type Stager struct {
	dir     string
	fetcher Fetcher
	newID   func() string
	log     *slog.Logger
}

// NewStager creates the staging directory if needed.
func NewStager(dir string, fetcher Fetcher, log *slog.Logger) (*Stager, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("staging directory is required")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	return &Stager{
		dir:     dir,
		fetcher: fetcher,
		newID:   uuid.NewString,
		log:     log.With("component", "media.stager"),
	}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage fetches the referenced photo and writes it to a fresh file.
// The caller must Release the returned image.
func (s *Stager) Stage(ctx context.Context, ref PhotoRef) (*StagedImage, error) {
	fileID := strings.TrimSpace(ref.FileID)
	if fileID == "" {
		return nil, &StageError{Op: OpFetch, Err: errors.New("file id is required")}
	}

	remote, err := s.fetcher.Fetch(ctx, fileID)
	if err != nil {
		return nil, &StageError{Op: OpFetch, Err: err}
	}
	if len(remote.Data) == 0 {
		return nil, &StageError{Op: OpFetch, Err: ErrEmptyFile}
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, &StageError{Op: OpWrite, Err: err}
	}

	path := filepath.Join(s.dir, stagedFilePrefix+s.newID()+stagedExt(remote.Path, ref.FileName))
	if err := os.WriteFile(path, remote.Data, 0o600); err != nil {
		_ = os.Remove(path)
		return nil, &StageError{Op: OpWrite, Err: err}
	}

	staged := &StagedImage{
		Path:     path,
		MIMEType: DetectMIME(path),
		Size:     len(remote.Data),
	}
	s.log.Debug("Photo staged", "file_id", fileID, "path", path, "mime_type", staged.MIMEType, "bytes", staged.Size)

	return staged, nil
}

// Sweep removes staged files left behind by an earlier process.
func (s *Stager) Sweep() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, stagedFilePrefix+"*"))
	if err != nil {
		return 0, fmt.Errorf("list staged files: %w", err)
	}

	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove staged file: %w", err)
		}
		removed++
	}

	return removed, nil
}

// stagedExt picks the extension from the transport path, then the original
// file name, then falls back to .jpg.
func stagedExt(candidates ...string) string {
	for _, candidate := range candidates {
		ext := strings.ToLower(filepath.Ext(strings.TrimSpace(candidate)))
		if ext != "" && ext != "." {
			return ext
		}
	}

	return defaultExt
}

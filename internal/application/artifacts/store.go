// Package artifacts persists uploaded binary artifacts on a hierarchical
// file store and produces public-root-relative paths. The sagas consume the
// Storage interface so tests can inject failures at any phase boundary.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"immoci-backend/internal/domain"

	"github.com/google/uuid"
)

// Constraints bound what Store accepts.
type Constraints struct {
	AllowedMIME map[string]string // content type -> file extension
	MaxSize     int64
}

// ImageConstraints is the default constraint set for listing photos.
var ImageConstraints = Constraints{
	AllowedMIME: map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	},
	MaxSize: 10 << 20,
}

// Storage is the hierarchical file store the lifecycle engine depends on.
// All paths are relative to the store roots; absolute roots never leak out.
type Storage interface {
	// Store validates and persists one artifact under dir (relative to the
	// public root) and returns its public-relative path. field names the
	// wire field for error reporting. No partial write on failure.
	Store(field, dir string, r io.Reader, size int64, c Constraints) (string, error)
	// ArchiveCopy copies (never moves) a public artifact into the archive
	// subtree. Fails if the source is missing.
	ArchiveCopy(sourcePath, archiveDir string) (string, error)
	// CopyArchived copies an already-archived artifact to another archive
	// directory (account archival folds in prior listing archives). Fails
	// if the source is missing.
	CopyArchived(sourcePath, archiveDir string) (string, error)
	// Remove deletes one public artifact. Idempotent: absent is success.
	Remove(p string) error
	// RemoveTree deletes a whole public subtree. Idempotent.
	RemoveTree(dir string) error
	// RemoveArchiveTree deletes a whole archive subtree (compensation for a
	// failed archival). Idempotent.
	RemoveArchiveTree(dir string) error
	// Exists reports whether a public artifact is present.
	Exists(p string) bool
}

// FSStore is the local-disk Storage implementation.
type FSStore struct {
	PublicRoot  string
	ArchiveRoot string
}

// NewFSStore creates both roots if needed.
func NewFSStore(publicRoot, archiveRoot string) (*FSStore, error) {
	for _, root := range []string{publicRoot, archiveRoot} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	}
	return &FSStore{PublicRoot: publicRoot, ArchiveRoot: archiveRoot}, nil
}

func (s *FSStore) Store(field, dir string, r io.Reader, size int64, c Constraints) (string, error) {
	if c.MaxSize > 0 && size > c.MaxSize {
		return "", &domain.ArtifactError{Field: field, Reason: "fichier trop volumineux"}
	}

	// Sniff the real content type from the first bytes; the client-declared
	// type is untrusted.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", &domain.ArtifactError{Field: field, Reason: "lecture impossible", Err: err}
	}
	head = head[:n]
	mime := strings.SplitN(http.DetectContentType(head), ";", 2)[0]
	ext, ok := c.AllowedMIME[mime]
	if !ok {
		return "", &domain.ArtifactError{Field: field, Reason: fmt.Sprintf("type non autorise: %s", mime)}
	}

	relDir := path.Clean(dir)
	absDir := filepath.Join(s.PublicRoot, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", &domain.ArtifactError{Field: field, Reason: "creation du dossier impossible", Err: err}
	}

	// Collision-free name; write to a temp file then rename so a failure
	// leaves nothing behind.
	name := uuid.New().String() + ext
	tmp, err := os.CreateTemp(absDir, ".upload-*")
	if err != nil {
		return "", &domain.ArtifactError{Field: field, Reason: "ecriture impossible", Err: err}
	}
	tmpName := tmp.Name()
	write := func() error {
		if _, err := tmp.Write(head); err != nil {
			return err
		}
		written, err := io.Copy(tmp, r)
		if err != nil {
			return err
		}
		if c.MaxSize > 0 && int64(len(head))+written > c.MaxSize {
			return errors.New("fichier trop volumineux")
		}
		return tmp.Close()
	}
	if err := write(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &domain.ArtifactError{Field: field, Reason: "ecriture impossible", Err: err}
	}
	if err := os.Rename(tmpName, filepath.Join(absDir, name)); err != nil {
		os.Remove(tmpName)
		return "", &domain.ArtifactError{Field: field, Reason: "deplacement impossible", Err: err}
	}
	return path.Join(relDir, name), nil
}

func (s *FSStore) ArchiveCopy(sourcePath, archiveDir string) (string, error) {
	return s.copyInto(filepath.Join(s.PublicRoot, filepath.FromSlash(sourcePath)), sourcePath, archiveDir)
}

func (s *FSStore) CopyArchived(sourcePath, archiveDir string) (string, error) {
	return s.copyInto(filepath.Join(s.ArchiveRoot, filepath.FromSlash(sourcePath)), sourcePath, archiveDir)
}

func (s *FSStore) copyInto(src, sourcePath, archiveDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("artefact source absent: %s: %w", sourcePath, domain.ErrNotFound)
		}
		return "", err
	}
	defer in.Close()

	relDir := path.Clean(archiveDir)
	absDir := filepath.Join(s.ArchiveRoot, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", err
	}
	name := path.Base(sourcePath)
	out, err := os.Create(filepath.Join(absDir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path.Join(relDir, name), nil
}

func (s *FSStore) Remove(p string) error {
	err := os.Remove(filepath.Join(s.PublicRoot, filepath.FromSlash(p)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FSStore) RemoveTree(dir string) error {
	return os.RemoveAll(filepath.Join(s.PublicRoot, filepath.FromSlash(path.Clean(dir))))
}

func (s *FSStore) RemoveArchiveTree(dir string) error {
	return os.RemoveAll(filepath.Join(s.ArchiveRoot, filepath.FromSlash(path.Clean(dir))))
}

func (s *FSStore) Exists(p string) bool {
	_, err := os.Stat(filepath.Join(s.PublicRoot, filepath.FromSlash(p)))
	return err == nil
}

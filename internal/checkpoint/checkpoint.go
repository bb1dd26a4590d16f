package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/dwarvesf/swap-history/internal/consts"
)

// FileError reports a cursor that could not be read or made durable.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type IStore interface {
	// Read returns the stored cursor, or "" when none was written yet.
	Read(source consts.SourceKind, dir consts.Direction) (string, error)
	// Write replaces the cursor. The previous value survives a failed write.
	Write(source consts.SourceKind, dir consts.Direction, cursor string) error
}

type store struct {
	fs   afero.Fs
	root string
	mu   sync.Mutex
}

func New(fs afero.Fs, root string) IStore {
	return &store{fs: fs, root: root}
}

// NewOnDisk stores cursors under root on the local filesystem.
func NewOnDisk(root string) IStore {
	return New(afero.NewOsFs(), root)
}

func (s *store) path(source consts.SourceKind, dir consts.Direction) string {
	return filepath.Join(s.root, fmt.Sprintf("%s_%s_page_token.txt", source, dir))
}

func (s *store) Read(source consts.SourceKind, dir consts.Direction) (string, error) {
	p := s.path(source, dir)
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &FileError{Path: p, Op: "read", Err: err}
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *store) Write(source consts.SourceKind, dir consts.Direction, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.path(source, dir)
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return &FileError{Path: p, Op: "write", Err: err}
	}

	tmp := p + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &FileError{Path: p, Op: "write", Err: err}
	}
	if _, err := f.WriteString(cursor); err != nil {
		f.Close()
		return &FileError{Path: p, Op: "write", Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &FileError{Path: p, Op: "sync", Err: err}
	}
	if err := f.Close(); err != nil {
		return &FileError{Path: p, Op: "write", Err: err}
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		return &FileError{Path: p, Op: "rename", Err: err}
	}
	return nil
}

// Package importer turns decoded asset documents into engine skeletons and
// models, and writes their textures out on background workers.
package importer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/iris3d/internal/logger"
)

var (
	// ErrPending is returned by TexturePath while exports are still running.
	ErrPending = errors.New("importer: texture exports pending")
	// ErrNotStarted is returned when a session is used outside Begin/End.
	ErrNotStarted = errors.New("importer: session not started")
	// ErrUnknownTexture is returned for a texture that was never exported.
	ErrUnknownTexture = errors.New("importer: unknown texture")
	// ErrBadTextureName is returned for names that escape the output dir.
	ErrBadTextureName = errors.New("importer: texture name outside output dir")
)

// textureKey cleans name into a relative path below the output dir.
func textureKey(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrap(ErrBadTextureName, name)
	}
	return rel, nil
}

// Session groups the texture exports of one import. Exports run in the
// background; Wait joins them.
type Session struct {
	log     *zap.Logger
	workers int

	mu       sync.Mutex
	outDir   string
	group    *errgroup.Group
	exported map[string]string
	started  bool
	pending  bool
}

// NewSession creates a session that runs at most workers exports at once.
// workers <= 0 means one.
func NewSession(workers int) *Session {
	if workers <= 0 {
		workers = 1
	}
	return &Session{log: logger.Named("importer"), workers: workers}
}

// Begin starts a session writing textures into outDir.
func (s *Session) Begin(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "create texture dir %s", outDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outDir = outDir
	s.group = &errgroup.Group{}
	s.group.SetLimit(s.workers)
	s.exported = make(map[string]string)
	s.started = true
	s.pending = false
	s.log.Debug("import session started", zap.String("dir", outDir), zap.Int("workers", s.workers))
	return nil
}

// ExportTexture queues data to be written as name. name is a slash
// separated path kept below the output dir, so equal file names in
// different folders stay apart. A name already queued in this session is
// ignored. It returns false when nothing was queued.
func (s *Session) ExportTexture(name string, data []byte) bool {
	key, err := textureKey(name)
	if err != nil {
		s.log.Warn("texture rejected", zap.Error(err))
		return false
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.log.Warn("texture export outside a session", zap.String("name", name))
		return false
	}
	if _, ok := s.exported[key]; ok {
		s.mu.Unlock()
		return false
	}
	path := filepath.Join(s.outDir, key)
	s.exported[key] = path
	s.pending = true
	g := s.group
	s.mu.Unlock()

	g.Go(func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.Wrapf(err, "create dir for texture %s", name)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrapf(err, "write texture %s", name)
		}
		return nil
	})
	return true
}

// Wait blocks until every queued export has finished and returns the first
// failure.
func (s *Session) Wait() error {
	s.mu.Lock()
	g := s.group
	started := s.started
	s.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	err := g.Wait()

	s.mu.Lock()
	s.pending = false
	n := len(s.exported)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("texture export failed", zap.Error(err))
		return err
	}
	s.log.Debug("texture exports finished", zap.Int("count", n))
	return nil
}

// TexturePath returns where name was written. It is only valid after Wait.
func (s *Session) TexturePath(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return "", ErrNotStarted
	}
	if s.pending {
		return "", ErrPending
	}
	key, err := textureKey(name)
	if err != nil {
		return "", err
	}
	path, ok := s.exported[key]
	if !ok {
		return "", errors.Wrap(ErrUnknownTexture, name)
	}
	return path, nil
}

// Len returns the number of distinct textures queued in this session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exported)
}

// End waits for outstanding exports and closes the session.
func (s *Session) End() error {
	err := s.Wait()
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	if errors.Is(err, ErrNotStarted) {
		return nil
	}
	return err
}

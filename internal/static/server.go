package static

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/util"
)

// FileServer serves regular files below a base directory for one URL
// prefix. It never lists directories.
type FileServer struct {
	prefix             string
	baseDir            string
	defaultContentType string
	contentTypes       map[string]string
	logger             observability.Logger
}

// Option is a functional option for configuring a FileServer.
type Option func(*FileServer)

// WithDefaultContentType sets the content type used for unknown extensions.
func WithDefaultContentType(contentType string) Option {
	return func(s *FileServer) {
		if contentType != "" {
			s.defaultContentType = contentType
		}
	}
}

// WithContentType adds or overrides one extension in the table. The
// extension may be given with or without the leading dot.
func WithContentType(ext, contentType string) Option {
	return func(s *FileServer) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.contentTypes[ext] = contentType
	}
}

// WithLogger sets the logger for the file server.
func WithLogger(logger observability.Logger) Option {
	return func(s *FileServer) {
		s.logger = logger
	}
}

// New creates a FileServer for urlPrefix backed by baseDir. The base
// directory is canonicalized once, so it must exist.
func New(urlPrefix, baseDir string, opts ...Option) (*FileServer, error) {
	if err := util.ValidatePathPrefix(urlPrefix); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static directory %s: %w", baseDir, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static directory %s: %w", baseDir, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to stat static directory %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static directory %s is not a directory", baseDir)
	}

	s := &FileServer{
		prefix:             urlPrefix,
		baseDir:            canonical,
		defaultContentType: DefaultContentType,
		contentTypes:       make(map[string]string),
		logger:             observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Prefix returns the URL prefix the server is mounted on.
func (s *FileServer) Prefix() string {
	return s.prefix
}

// BaseDir returns the canonical base directory.
func (s *FileServer) BaseDir() string {
	return s.baseDir
}

// Matches reports whether path falls under the server's prefix. The prefix
// only matches at a segment boundary.
func (s *FileServer) Matches(path string) bool {
	return MatchesPrefix(s.prefix, path)
}

// MatchesPrefix reports whether path equals prefix or continues it with a
// new path segment.
func MatchesPrefix(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

// Serve writes the file addressed by requestedPath into res. Every failure,
// including an attempt to leave the base directory, produces the same 404
// response; the returned error carries the reason for logs.
func (s *FileServer) Serve(requestedPath string, res *router.Response) error {
	full, err := s.resolve(requestedPath)
	if err != nil {
		s.logger.Debug("static file not served",
			observability.String("prefix", s.prefix),
			observability.String("path", requestedPath),
			observability.Error(err),
		)
		res.Finalize(http.StatusNotFound, util.BodyFileNotFound)
		return err
	}

	content, err := os.ReadFile(full)
	if err != nil {
		res.Finalize(http.StatusNotFound, util.BodyFileNotFound)
		return util.NewStaticFileNotFoundError(requestedPath, "unreadable", err)
	}

	res.Finalize(http.StatusOK, "")
	res.SetContentType(s.contentTypeFor(full))
	_, _ = res.Write(content)
	return nil
}

// resolve maps requestedPath to a regular file inside the base directory.
func (s *FileServer) resolve(requestedPath string) (string, error) {
	rel := strings.TrimPrefix(requestedPath, s.prefix)
	joined := filepath.Join(s.baseDir, filepath.FromSlash(rel))

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", util.NewStaticFileNotFoundError(requestedPath, "missing", err)
	}

	if !s.contains(resolved) {
		return "", util.NewStaticFileNotFoundError(requestedPath, "outside base directory", nil)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", util.NewStaticFileNotFoundError(requestedPath, "missing", err)
	}
	if !info.Mode().IsRegular() {
		return "", util.NewStaticFileNotFoundError(requestedPath, "not a regular file", nil)
	}

	return resolved, nil
}

// contains reports whether path lies inside the base directory.
func (s *FileServer) contains(path string) bool {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *FileServer) contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := s.contentTypes[ext]; ok {
		return ct
	}
	if ct := ContentTypeFor(name); ct != "" {
		return ct
	}
	return s.defaultContentType
}

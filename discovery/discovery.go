// Package discovery turns a source directory into upload jobs.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/bitrise-io/s3-dir-uploader/internal"
	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

// Filter selects files by their slash separated path relative to the source directory.
// An empty Include list selects every file; Exclude wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

// Validate ...
func (f Filter) Validate() error {
	var errs []error
	for _, pattern := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("invalid glob pattern: %s", pattern))
		}
	}
	return errors.Join(errs...)
}

func (f Filter) excluded(rel string) bool {
	return matchAny(f.Exclude, rel)
}

func (f Filter) included(rel string) bool {
	return len(f.Include) == 0 || matchAny(f.Include, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Scanner lists the regular files of a directory tree.
type Scanner struct {
	logger log.Logger
	os     internal.OsProxy
}

// NewScanner ...
func NewScanner(logger log.Logger) *Scanner {
	return &Scanner{
		logger: logger,
		os:     internal.RealOS{},
	}
}

// Scan walks sourceDir and returns one job per selected regular file, in lexical path order.
// Symlinks are not followed and are skipped.
func (s *Scanner) Scan(sourceDir, prefix string, filter Filter) ([]multipart.Job, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	root, err := s.os.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory: %w", err)
	}

	info, err := s.os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory: %s is not a directory", root)
	}

	jobs := []multipart.Job{}
	err = fs.WalkDir(s.os.DirFS(root), ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if filter.excluded(rel) {
			s.logger.Debugf("Excluded: %s", rel)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			s.logger.Debugf("Skipping symlink: %s", rel)
			return nil
		case !d.Type().IsRegular():
			s.logger.Debugf("Skipping non-regular file: %s", rel)
			return nil
		}

		if !filter.included(rel) {
			return nil
		}

		jobs = append(jobs, multipart.Job{
			SourcePath:     filepath.Join(root, filepath.FromSlash(rel)),
			DestinationKey: DestinationKey(prefix, rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return jobs, nil
}

// DestinationKey joins the key prefix and a slash separated relative path.
func DestinationKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

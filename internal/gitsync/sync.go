// Package gitsync keeps local working copies of external repositories fresh
// and lists the files eligible for indexing.
package gitsync

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const syncParallelism = 4

// Descriptor identifies one external repository. Configuration-derived and
// read-only at runtime.
type Descriptor struct {
	Name      string
	RemoteURL string
	LocalPath string
}

// Descriptors builds descriptors for urls, with working copies under dir.
func Descriptors(urls []string, dir string) []Descriptor {
	descs := make([]Descriptor, 0, len(urls))
	for _, url := range urls {
		name := RepoName(url)
		if name == "" {
			continue
		}
		descs = append(descs, Descriptor{
			Name:      name,
			RemoteURL: url,
			LocalPath: filepath.Join(dir, name),
		})
	}
	return descs
}

// RepoName derives a repository name from its URL: the last path segment
// with any ".git" suffix removed.
func RepoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// File is one readable file from a successfully synced repository.
type File struct {
	Path     string
	RepoName string
}

// Synchronizer clones or updates repository working copies.
type Synchronizer struct {
	extensions map[string]bool
	logger     *zap.Logger
}

// NewSynchronizer creates a synchronizer that accepts files with the given
// extensions (e.g. ".md", ".rs").
func NewSynchronizer(extensions []string, logger *zap.Logger) *Synchronizer {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Synchronizer{extensions: exts, logger: logger}
}

// Sync ensures each descriptor's working copy is present and up to date,
// then returns the eligible files of every repository that synced. A failing
// repository is logged and excluded; it never fails the whole pass. The
// second return value is how many repositories synced successfully.
func (s *Synchronizer) Sync(ctx context.Context, descs []Descriptor) ([]File, int) {
	var (
		mu     sync.Mutex
		files  []File
		synced int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncParallelism)
	for _, d := range descs {
		d := d
		g.Go(func() error {
			if err := s.cloneOrUpdate(ctx, d); err != nil {
				s.logger.Warn("repository sync failed",
					zap.String("repo", d.Name),
					zap.String("url", d.RemoteURL),
					zap.Error(err))
				return nil
			}
			repoFiles, err := s.collectFiles(d)
			if err != nil {
				s.logger.Warn("repository walk failed",
					zap.String("repo", d.Name),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			files = append(files, repoFiles...)
			synced++
			mu.Unlock()
			s.logger.Info("repository synced",
				zap.String("repo", d.Name),
				zap.Int("files", len(repoFiles)))
			return nil
		})
	}
	_ = g.Wait()
	return files, synced
}

// cloneOrUpdate performs a shallow clone when the working copy is missing,
// otherwise pulls the default branch in place.
func (s *Synchronizer) cloneOrUpdate(ctx context.Context, d Descriptor) error {
	repo, err := git.PlainOpen(d.LocalPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		_, err := git.PlainCloneContext(ctx, d.LocalPath, false, &git.CloneOptions{
			URL:          d.RemoteURL,
			Depth:        1,
			SingleBranch: true,
		})
		if err != nil {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// collectFiles walks the working copy and returns files whose extension is
// in the supported set. Everything else, including the .git directory, is
// skipped silently.
func (s *Synchronizer) collectFiles(d Descriptor) ([]File, error) {
	var files []File
	err := filepath.WalkDir(d.LocalPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if s.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, File{Path: path, RepoName: d.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

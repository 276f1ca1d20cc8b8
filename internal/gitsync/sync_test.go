package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// initSourceRepo creates a git repository with a few committed files and
// returns its path, usable as a clone URL.
func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	writeFile := func(rel, content string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeFile("README.md", "# readme\n\nsome docs")
	writeFile("src/lib.rs", "fn main() {}")
	writeFile("assets/logo.png", "not-really-a-png")

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("."); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRepoName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/linera-io/linera-protocol":     "linera-protocol",
		"https://github.com/linera-io/linera-protocol.git": "linera-protocol",
		"git@github.com:org/some-repo.git":                 "some-repo",
		"https://example.com/org/docs/":                    "docs",
	}
	for url, want := range cases {
		if got := RepoName(url); got != want {
			t.Errorf("RepoName(%q)=%q, want %q", url, got, want)
		}
	}
}

func TestSynchronizer_CloneAndCollect(t *testing.T) {
	src := initSourceRepo(t)
	workDir := t.TempDir()
	s := NewSynchronizer([]string{".md", ".rs"}, zap.NewNop())
	descs := []Descriptor{{Name: "fixture", RemoteURL: src, LocalPath: filepath.Join(workDir, "fixture")}}

	files, synced := s.Sync(context.Background(), descs)
	if synced != 1 {
		t.Fatalf("synced=%d", synced)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 eligible files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		if f.RepoName != "fixture" {
			t.Errorf("RepoName=%s", f.RepoName)
		}
		ext := filepath.Ext(f.Path)
		if ext != ".md" && ext != ".rs" {
			t.Errorf("unexpected extension: %s", f.Path)
		}
	}
}

func TestSynchronizer_UpdateInPlace(t *testing.T) {
	src := initSourceRepo(t)
	workDir := t.TempDir()
	s := NewSynchronizer([]string{".md", ".rs"}, zap.NewNop())
	descs := []Descriptor{{Name: "fixture", RemoteURL: src, LocalPath: filepath.Join(workDir, "fixture")}}

	if _, synced := s.Sync(context.Background(), descs); synced != 1 {
		t.Fatal("initial clone failed")
	}
	// Second pass hits the pull path on an up-to-date copy.
	files, synced := s.Sync(context.Background(), descs)
	if synced != 1 {
		t.Fatalf("resync: synced=%d", synced)
	}
	if len(files) != 2 {
		t.Errorf("resync files=%d", len(files))
	}
}

func TestSynchronizer_FailureIsolated(t *testing.T) {
	src := initSourceRepo(t)
	workDir := t.TempDir()
	s := NewSynchronizer([]string{".md", ".rs"}, zap.NewNop())
	descs := []Descriptor{
		{Name: "broken", RemoteURL: filepath.Join(workDir, "does-not-exist"), LocalPath: filepath.Join(workDir, "broken")},
		{Name: "fixture", RemoteURL: src, LocalPath: filepath.Join(workDir, "fixture")},
	}

	files, synced := s.Sync(context.Background(), descs)
	if synced != 1 {
		t.Fatalf("synced=%d, want 1", synced)
	}
	for _, f := range files {
		if f.RepoName != "fixture" {
			t.Errorf("file from failed repo: %+v", f)
		}
	}
}

func TestDescriptors(t *testing.T) {
	descs := Descriptors([]string{"https://example.com/org/alpha.git", "https://example.com/org/beta"}, "/data/repos")
	if len(descs) != 2 {
		t.Fatalf("len=%d", len(descs))
	}
	if descs[0].Name != "alpha" || descs[0].LocalPath != filepath.Join("/data/repos", "alpha") {
		t.Errorf("descs[0]=%+v", descs[0])
	}
}

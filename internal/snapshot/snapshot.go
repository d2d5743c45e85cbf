// Package snapshot records the site content in a local git repository so
// editors can see what changed between seeds and roll back by hand.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"veas/site/internal/content"
)

const (
	servicesDir = "services"
	sectionsDir = "sections"
	branch      = "main"
)

// ContentSource lists the content to snapshot.
type ContentSource interface {
	ListServices(ctx context.Context) ([]content.Service, error)
	ListAllSections(ctx context.Context) ([]content.Section, error)
}

type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	dir    string
	author string
	now    func() time.Time
	mu     sync.Mutex
}

func New(dir, author string) *Service {
	if strings.TrimSpace(author) == "" {
		author = "Veas Site"
	}
	return &Service{dir: dir, author: author, now: time.Now}
}

// Record writes every service and its sections into the repository and
// commits when anything differs from the last snapshot. changed is false when
// the tree was already up to date; the returned commit is then the current head.
func (s *Service) Record(ctx context.Context, source ContentSource, message string) (commit Commit, changed bool, err error) {
	services, err := source.ListServices(ctx)
	if err != nil {
		return Commit{}, false, fmt.Errorf("snapshot: %w", err)
	}
	sections, err := source.ListAllSections(ctx)
	if err != nil {
		return Commit{}, false, fmt.Errorf("snapshot: %w", err)
	}
	files, err := renderFiles(services, sections)
	if err != nil {
		return Commit{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return Commit{}, false, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return Commit{}, false, fmt.Errorf("open worktree: %w", err)
	}

	if err := s.removeStale(worktree, files); err != nil {
		return Commit{}, false, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := filepath.Join(s.dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return Commit{}, false, fmt.Errorf("create %s: %w", path.Dir(name), err)
		}
		if err := os.WriteFile(full, files[name], 0o644); err != nil {
			return Commit{}, false, fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := worktree.Add(name); err != nil {
			return Commit{}, false, fmt.Errorf("git add %s: %w", name, err)
		}
	}

	status, err := worktree.Status()
	if err != nil {
		return Commit{}, false, fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		head, err := headCommit(repo)
		return head, false, err
	}

	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Snapshot %d services, %d sections", len(services), len(sections))
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.author,
			Email: "site@veasacoustics.local",
			When:  s.now(),
		},
	})
	if err != nil {
		return Commit{}, false, fmt.Errorf("commit snapshot: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return Commit{}, false, fmt.Errorf("read commit object: %w", err)
	}
	return toCommit(commitObj), true, nil
}

// History lists snapshot commits, newest first. limit <= 0 returns all.
func (s *Service) History(limit int) ([]Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []Commit{}, nil
		}
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Commit, 0)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommit(commitObj))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// open opens the repository, creating it with a main branch on first use.
func (s *Service) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(s.dir, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))); err != nil {
		return nil, fmt.Errorf("set HEAD to %s: %w", branch, err)
	}
	return repo, nil
}

// removeStale deletes tracked snapshot files that are not in the new set,
// e.g. a service whose slug changed.
func (s *Service) removeStale(worktree *git.Worktree, keep map[string][]byte) error {
	for _, dir := range []string{servicesDir, sectionsDir} {
		entries, err := os.ReadDir(filepath.Join(s.dir, dir))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			name := path.Join(dir, entry.Name())
			if entry.IsDir() {
				continue
			}
			if _, ok := keep[name]; ok {
				continue
			}
			if _, err := worktree.Remove(name); err != nil {
				if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(name))); err != nil {
					return fmt.Errorf("remove %s: %w", name, err)
				}
			}
		}
	}
	return nil
}

// renderFiles maps repository paths to file contents.
func renderFiles(services []content.Service, sections []content.Section) (map[string][]byte, error) {
	files := make(map[string][]byte, len(services)*2)

	grouped := make(map[string][]content.Section)
	for _, section := range sections {
		grouped[section.ServiceKey] = append(grouped[section.ServiceKey], section)
	}

	for _, service := range services {
		name := fileName(service.Slug)
		if name == "" {
			continue
		}
		data, err := marshal(service)
		if err != nil {
			return nil, fmt.Errorf("marshal service %s: %w", service.Key, err)
		}
		files[path.Join(servicesDir, name+".json")] = data
	}

	for key, list := range grouped {
		name := fileName(key)
		if name == "" {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		data, err := marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshal sections of %s: %w", key, err)
		}
		files[path.Join(sectionsDir, name+".json")] = data
	}
	return files, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// fileName keeps slug characters that are safe in a path; anything that
// would escape the directory yields "".
func fileName(slug string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(slug) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}

func headCommit(repo *git.Repository) (Commit, error) {
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Commit{}, nil
		}
		return Commit{}, fmt.Errorf("resolve head: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Commit{}, fmt.Errorf("read head commit: %w", err)
	}
	return toCommit(commitObj), nil
}

func toCommit(commitObj *object.Commit) Commit {
	return Commit{
		Hash:      commitObj.Hash.String()[:7],
		Message:   strings.TrimSpace(commitObj.Message),
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

// Package cache is the durable commit/PR reconciliation store: one JSON
// file per key under the glance metadata directory. Entries never expire;
// a refresh means deleting files out of band. Concurrent runs against the
// same directory are not coordinated, that is a documented non-goal.
package cache

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kingrea/git-glance/internal/model"
)

// Store persists commit and PR records file-per-key.
type Store struct {
	commitsDir string
	prsDir     string
}

// Open ensures the cache directories exist under root.
func Open(root string) (*Store, error) {
	s := &Store{
		commitsDir: filepath.Join(root, "commits"),
		prsDir:     filepath.Join(root, "prs"),
	}
	for _, dir := range []string{s.commitsDir, s.prsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "cache: ensure directory")
		}
	}
	return s, nil
}

// Commit returns the cached record for a commit id, or nil when the
// commit has never been examined.
func (s *Store) Commit(oid string) (*model.Commit, error) {
	var record model.Commit
	ok, err := s.read(filepath.Join(s.commitsDir, oid+".json"), &record)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: read commit %s", oid)
	}
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// PR returns the cached record for a PR number, or nil when absent.
// Absence is only normal for numbers no commit record points at.
func (s *Store) PR(number string) (*model.PullRequest, error) {
	var record model.PullRequest
	ok, err := s.read(filepath.Join(s.prsDir, number+".json"), &record)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: read pr %s", number)
	}
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// PutCommit writes a commit record, overwriting any previous entry.
func (s *Store) PutCommit(record model.Commit) error {
	return errors.Wrapf(
		s.write(filepath.Join(s.commitsDir, record.OID+".json"), record),
		"cache: write commit %s", record.OID)
}

// PutPR writes a PR record, overwriting any previous entry.
func (s *Store) PutPR(record model.PullRequest) error {
	return errors.Wrapf(
		s.write(filepath.Join(s.prsDir, record.Number+".json"), record),
		"cache: write pr %s", record.Number)
}

func (s *Store) read(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) write(path string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

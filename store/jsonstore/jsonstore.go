// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/store/memstore"
)

const (
	RolesFile = "roles.json"
	VotesFile = "votes.json"
)

type rolesDoc struct {
	Roles []models.Role `json:"roles"`
}

type votesDoc struct {
	Votes []models.Vote `json:"votes"`
}

// Store persists roles and votes as two JSON documents in a directory.
// The working set lives in a memstore. Each write rewrites only the document
// it changed, through a temp file and rename, so a failed write leaves both
// files as they were.
type Store struct {
	dir string

	// guards mem, which is replaced on a failed write
	mu  sync.Mutex
	mem *memstore.Store
}

// Open loads dir/roles.json and dir/votes.json, creating dir if needed.
// Missing files are treated as empty.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}

	roles, votes, err := Load(dir)
	if err != nil {
		return nil, err
	}

	mem, err := memstore.NewWithData(roles, votes)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dir, err)
	}
	return &Store{dir: dir, mem: mem}, nil
}

// Load reads both documents without opening a store. Emails are normalized
// and missing candidate sequence numbers are derived from candidate ids.
func Load(dir string) ([]models.Role, []models.Vote, error) {
	var rd rolesDoc
	if err := readJSON(filepath.Join(dir, RolesFile), &rd); err != nil {
		return nil, nil, err
	}
	var vd votesDoc
	if err := readJSON(filepath.Join(dir, VotesFile), &vd); err != nil {
		return nil, nil, err
	}

	for i := range rd.Roles {
		r := &rd.Roles[i]
		for j, e := range r.AllowedEmails {
			r.AllowedEmails[j] = strings.ToLower(strings.TrimSpace(e))
		}
		if r.Status == "" {
			r.Status = models.StatusActive
		}
		r.CandidateSeq = max(r.CandidateSeq, r.MaxCandidateID())
	}
	for i := range vd.Votes {
		vd.Votes[i].Voter = strings.ToLower(strings.TrimSpace(vd.Votes[i].Voter))
	}
	return rd.Roles, vd.Votes, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// write applies op to the working set and persists file. Role operations
// never touch votes and votes never touch roles, so one document suffices.
// If the file cannot be written the working set is rolled back. Must be
// called with mu held.
func (s *Store) write(file string, op func(mem *memstore.Store) error) error {
	roles, votes := s.mem.Snapshot()
	if err := op(s.mem); err != nil {
		return err
	}
	if err := s.persist(file); err != nil {
		if mem, rerr := memstore.NewWithData(roles, votes); rerr == nil {
			s.mem = mem
		}
		return err
	}
	return nil
}

func (s *Store) persist(file string) error {
	roles, votes := s.mem.Snapshot()
	var doc any
	switch file {
	case RolesFile:
		doc = rolesDoc{Roles: roles}
	case VotesFile:
		doc = votesDoc{Votes: votes}
	default:
		return fmt.Errorf("unknown document %s", file)
	}
	if err := writeJSON(filepath.Join(s.dir, file), doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(RolesFile, func(mem *memstore.Store) error {
		return mem.CreateRole(ctx, role)
	})
}

func (s *Store) GetRole(ctx context.Context, id string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.GetRole(ctx, id)
}

func (s *Store) ListRoles(ctx context.Context, status string) ([]models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.ListRoles(ctx, status)
}

func (s *Store) UpdateRole(ctx context.Context, id string, fn store.UpdateFunc) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role *models.Role
	err := s.write(RolesFile, func(mem *memstore.Store) error {
		var err error
		role, err = mem.UpdateRole(ctx, id, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(RolesFile, func(mem *memstore.Store) error {
		return mem.DeleteRole(ctx, id)
	})
}

func (s *Store) UpsertVote(ctx context.Context, vote *models.Vote, guard store.VoteGuard) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated bool
	err := s.write(VotesFile, func(mem *memstore.Store) error {
		var err error
		updated, err = mem.UpsertVote(ctx, vote, guard)
		return err
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *Store) ListVotes(ctx context.Context, roleID string) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.ListVotes(ctx, roleID)
}

func (s *Store) ListVoterVotes(ctx context.Context, roleID, voter string) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.ListVoterVotes(ctx, roleID, voter)
}

func (s *Store) CountVotes(ctx context.Context, roleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.CountVotes(ctx, roleID)
}

func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)

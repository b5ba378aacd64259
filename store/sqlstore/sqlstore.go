// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/hirevote/db"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on PostgreSQL or SQLite. Both dialects take
// $N placeholders; only row locking differs.
type Store struct {
	db     *sql.DB
	dbType string
}

// New wraps an open connection. dbType is db.TypePostgres or db.TypeSQLite.
func New(conn *sql.DB, dbType string) *Store {
	return &Store{db: conn, dbType: dbType}
}

// Open connects, creates the schema and returns a ready store.
func Open(ctx context.Context, dbType, url string) (*Store, error) {
	conn, err := db.Open(ctx, dbType, url)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return New(conn, dbType), nil
}

// DB exposes the underlying connection for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// lock returns the row-lock suffix for SELECTs inside a transaction.
// SQLite serializes writers on its own.
func (s *Store) lock(mode string) string {
	if s.dbType == db.TypePostgres {
		return " FOR " + mode
	}
	return ""
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, role *models.Role) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1)`, role.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check role: %w", err)
		}
		if exists {
			return store.ErrExists
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO roles (id, position, status, hiring_manager, allow_results_override, candidate_seq, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, role.ID, role.Position, role.Status, nullString(role.HiringManager), role.AllowResultsOverride,
			role.CandidateSeq, role.CreatedAt.UTC(), role.UpdatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrExists
			}
			return fmt.Errorf("failed to insert role: %w", err)
		}

		return writeChildren(ctx, tx, role)
	})
}

// writeChildren inserts the candidate and allowed-voter rows of role.
func writeChildren(ctx context.Context, tx *sql.Tx, role *models.Role) error {
	for i, c := range role.Candidates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO candidates (role_id, candidate_id, name, sort_order) VALUES ($1, $2, $3, $4)`,
			role.ID, c.ID, c.Name, i)
		if err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", c.ID, err)
		}
	}
	for i, email := range role.AllowedEmails {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO allowed_voters (role_id, email, sort_order) VALUES ($1, $2, $3)`,
			role.ID, email, i)
		if err != nil {
			return fmt.Errorf("failed to insert allowed voter: %w", err)
		}
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, id string) (*models.Role, error) {
	return s.loadRole(ctx, s.db, id, "")
}

const roleColumns = `id, position, status, hiring_manager, allow_results_override, candidate_seq, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRole(row scanner) (*models.Role, error) {
	var (
		r  models.Role
		hm sql.NullString
	)
	err := row.Scan(&r.ID, &r.Position, &r.Status, &hm, &r.AllowResultsOverride,
		&r.CandidateSeq, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.HiringManager = hm.String
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	r.Candidates = []models.Candidate{}
	r.AllowedEmails = []string{}
	return &r, nil
}

func (s *Store) loadRole(ctx context.Context, q querier, id, lock string) (*models.Role, error) {
	row := q.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`+lock, id)
	r, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT candidate_id, name FROM candidates WHERE role_id = $1 ORDER BY sort_order`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		r.Candidates = append(r.Candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx,
		`SELECT email FROM allowed_voters WHERE role_id = $1 ORDER BY sort_order`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed voters: %w", err)
	}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan allowed voter: %w", err)
		}
		r.AllowedEmails = append(r.AllowedEmails, email)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Store) ListRoles(ctx context.Context, status string) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	byID := make(map[string]int)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		byID[r.ID] = len(roles)
		roles = append(roles, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Children for every role in two queries instead of two per role
	crows, err := s.db.QueryContext(ctx,
		`SELECT role_id, candidate_id, name FROM candidates ORDER BY role_id, sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var roleID string
		var c models.Candidate
		if err := crows.Scan(&roleID, &c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if i, ok := byID[roleID]; ok {
			roles[i].Candidates = append(roles[i].Candidates, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	crows.Close()

	vrows, err := s.db.QueryContext(ctx,
		`SELECT role_id, email FROM allowed_voters ORDER BY role_id, sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowed voters: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var roleID, email string
		if err := vrows.Scan(&roleID, &email); err != nil {
			return nil, fmt.Errorf("failed to scan allowed voter: %w", err)
		}
		if i, ok := byID[roleID]; ok {
			roles[i].AllowedEmails = append(roles[i].AllowedEmails, email)
		}
	}
	return roles, vrows.Err()
}

func (s *Store) UpdateRole(ctx context.Context, id string, fn store.UpdateFunc) (*models.Role, error) {
	var role *models.Role
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		r, err := s.loadRole(ctx, tx, id, s.lock("UPDATE"))
		if err != nil {
			return err
		}

		idx, err := voteIndex(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := fn(r, idx); err != nil {
			return err
		}
		r.ID = id

		_, err = tx.ExecContext(ctx, `
			UPDATE roles
			SET position = $1, status = $2, hiring_manager = $3, allow_results_override = $4,
			    candidate_seq = $5, updated_at = $6
			WHERE id = $7
		`, r.Position, r.Status, nullString(r.HiringManager), r.AllowResultsOverride,
			r.CandidateSeq, r.UpdatedAt.UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE role_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear candidates: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM allowed_voters WHERE role_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear allowed voters: %w", err)
		}
		if err := writeChildren(ctx, tx, r); err != nil {
			return err
		}

		role = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func voteIndex(ctx context.Context, q querier, roleID string) (store.VoteIndex, error) {
	idx := store.NewVoteIndex(nil)
	rows, err := q.QueryContext(ctx, `SELECT candidate_id, voter FROM votes WHERE role_id = $1`, roleID)
	if err != nil {
		return idx, fmt.Errorf("failed to index votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID, voter string
		if err := rows.Scan(&candidateID, &voter); err != nil {
			return idx, fmt.Errorf("failed to scan vote: %w", err)
		}
		idx.Add(candidateID, voter)
	}
	return idx, rows.Err()
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var found string
		err := tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE id = $1`+s.lock("UPDATE"), id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load role: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE role_id = $1`, id).Scan(&count); err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		if count > 0 {
			return store.ErrHasVotes
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrHasVotes
			}
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return nil
	})
}

func (s *Store) UpsertVote(ctx context.Context, vote *models.Vote, guard store.VoteGuard) (bool, error) {
	var updated bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// Votes on one role are serialized on the role row, so the guard,
		// the candidate check and the created/updated answer see the same role
		role, err := s.loadRole(ctx, tx, vote.RoleID, s.lock("UPDATE"))
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(role); err != nil {
				return err
			}
		}
		if _, ok := role.Candidate(vote.CandidateID); !ok {
			return fmt.Errorf("candidate %q: %w", vote.CandidateID, store.ErrNotFound)
		}

		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM votes WHERE voter = $1 AND role_id = $2 AND candidate_id = $3)`,
			vote.Voter, vote.RoleID, vote.CandidateID).Scan(&updated)
		if err != nil {
			return fmt.Errorf("failed to check existing vote: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO votes (voter, role_id, candidate_id, candidate_name, role_position, choice, feedback, voted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (voter, role_id, candidate_id)
			DO UPDATE SET candidate_name = excluded.candidate_name,
			              role_position = excluded.role_position,
			              choice = excluded.choice,
			              feedback = excluded.feedback,
			              voted_at = excluded.voted_at
		`, vote.Voter, vote.RoleID, vote.CandidateID, vote.CandidateName, vote.RolePosition,
			vote.Choice, vote.Feedback, vote.Timestamp.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

const voteColumns = `voter, role_id, candidate_id, candidate_name, role_position, choice, feedback, voted_at`

func (s *Store) ListVotes(ctx context.Context, roleID string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM votes
		WHERE role_id = $1
		ORDER BY voted_at, candidate_id, voter
	`, roleID)
}

func (s *Store) ListVoterVotes(ctx context.Context, roleID, voter string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM votes
		WHERE role_id = $1 AND voter = $2
		ORDER BY voted_at, candidate_id
	`, roleID, voter)
}

func (s *Store) queryVotes(ctx context.Context, query string, args ...any) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		err := rows.Scan(&v.Voter, &v.RoleID, &v.CandidateID, &v.CandidateName,
			&v.RolePosition, &v.Choice, &v.Feedback, &v.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Timestamp = v.Timestamp.UTC()
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (s *Store) CountVotes(ctx context.Context, roleID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE role_id = $1`, roleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// Reset deletes every role and vote. Used by offline imports that replace
// the whole dataset.
func (s *Store) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"votes", "allowed_voters", "candidates", "roles"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

var _ store.Store = (*Store)(nil)

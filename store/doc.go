// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the storage interface shared by every backend.

# Backends

  - memstore: in-memory maps behind a mutex; used by tests and as the
    working set of jsonstore
  - jsonstore: roles.json and votes.json in a data directory
  - sqlstore: PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite)

backend.Open picks one by database type. storetest holds the suite every
backend must pass.

# Errors

Backends return sentinel errors, optionally wrapped:

  - ErrNotFound: role (or candidate, for UpsertVote) does not exist
  - ErrExists: role id already taken
  - ErrHasVotes: role cannot be deleted because votes reference it

UpsertVote takes a VoteGuard that sees the role inside the write's lock or
transaction; its error aborts the write and is returned unchanged.

# Atomic role updates

UpdateRole takes a callback that receives the current role and a VoteIndex
computed under the same lock or transaction:

	role, err := st.UpdateRole(ctx, id, func(r *models.Role, votes store.VoteIndex) error {
		if votes.ByCandidate["2"] > 0 {
			return errCannotRemove
		}
		r.Candidates = r.Candidates[:1]
		return nil
	})

An error from the callback is returned unchanged and nothing is written.
*/
package store

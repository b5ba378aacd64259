// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package migrate moves data between storage shapes offline.

# Legacy Import

ImportLegacy reads the single-role config.json and votes.json of the first
deployment and writes them as one role:

	m := migrate.New(st, logger)
	role, report, err := m.ImportLegacy(ctx, "old-data")

A config with only candidate_name becomes a role with candidate "1". Legacy
votes carry no candidate and are attributed to candidate "1".

# JSON to SQL

CopyJSON copies a roles.json / votes.json data directory into the target
store and verifies role, candidate and vote counts afterwards. A non-empty
target is refused unless force is set and the target can be reset.

# Backfill

BackfillHiringManager sets the hiring manager on every role that has none.
*/
package migrate

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements blind panel voting on hiring roles.

A role lists candidates and the emails allowed to vote. Every allowed voter
casts one Inclined / Not Inclined vote with feedback per candidate; repeat
submissions replace the earlier vote. Results stay sealed until the role is
complete:

	expected = len(allowed_emails) * len(candidates)
	complete = stored votes >= expected

A role with allow_results_override set discloses its tally early, flagged as
early_disclosure.

# Role lifecycle

	active ──> fulfilled ──> expired
	   └────────────────────────^

Votes are accepted only while a role is active. Roles never return to active.

# Candidate identity

Candidates are numbered "1", "2", ... per role. Once any vote exists, ids are
never reused and a candidate with votes cannot be removed. A voter with votes
cannot be removed from the allow-list either.

# Errors

Every operation returns *Error with a Kind (NotFound, Forbidden,
InvalidInput, Conflict, Internal). Use KindOf to classify and MessageOf for
a caller-safe message.
*/
package voting

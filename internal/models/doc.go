// Package models defines the core domain models of the HiveFund ledger.
//
// # Ledger Models
//
//   - Campaign: a fundraising effort; the ledger only reads its status and
//     maintains its raised amount.
//   - Donation: an immutable, committed contribution to one campaign.
//   - MatchPool: a sponsor pledge (HoneyMatch) that matches donations until it
//     runs out or its deadline passes.
//   - MatchContribution: one non-zero deduction from a MatchPool.
//   - Donor: display information for a donor, used for leaderboard rendering.
//
// # Derived Models
//
//   - LeaderboardEntry: a ranked donor total, computed on every query and never
//     stored.
//
// # Design Principles
//
//  1. Money is always decimal.Decimal, never float64.
//  2. Relationships are ID strings, never pointers.
//  3. Donations keep the true donor id; anonymity is applied when rendering.
package models

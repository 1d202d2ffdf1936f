// Package models defines the core domain models for the tontine engine.
//
// A tontine (Group) is a rotating savings and credit association: every
// ACTIVE Member owes one ContributionRound per round sequence, the pooled
// contributions sit in the group's escrow balance, and exactly one member
// receives a Distribution per round in rotation order. Penalties are separate
// obligations raised by the group admin.
//
// # Money
//
// All amounts are int64 minor units of the group's currency (cents for EUR,
// francs for XOF). Nothing in this package uses floating point.
//
// # Lifecycle
//
// Entities are never deleted. State only moves forward:
//   - Group:             ACTIVE <-> SUSPENDED, either -> CLOSED (terminal)
//   - Member:            PENDING -> ACTIVE | REJECTED
//   - ContributionRound: UNVALIDATED -> VALIDATED
//   - Penalty:           UNPAID -> PAID
//
// Relationships use ID strings instead of pointers.
package models

// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tontine/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional write found the record in
	// an unexpected state or a uniqueness constraint was violated. Nothing
	// was written.
	ErrConflict = errors.New("record state conflict")
)

// Store defines the persistence operations of the tontine engine.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine.
//
// Every method that changes more than one record runs in a single
// transaction and either applies all of its writes or none.
type Store interface {
	// CreateGroup persists a new group together with its admin member.
	// IDs and timestamps left empty are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group, admin *models.Member) error

	// GetGroup retrieves a group including its rotation order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroupStatus moves a group from one status to another.
	// Returns ErrConflict if the group is not in status from.
	UpdateGroupStatus(ctx context.Context, groupID string, from, to models.GroupStatus) error

	// SetRotationOrder replaces the rotation order of a group whose first
	// round has not been opened. Returns ErrConflict otherwise.
	SetRotationOrder(ctx context.Context, groupID string, mode models.OrderingMode, order []string, seed uint64) error

	// CreateMember persists a PENDING membership. Returns ErrConflict if
	// the user already has a non-rejected membership in the group.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a membership by ID.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// GetMemberByUser retrieves the non-rejected membership of a user.
	GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error)

	// ListMembers retrieves all memberships of a group in invitation order.
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)

	// ActivateMember moves a membership from PENDING to ACTIVE and, if the
	// group already has a rotation order, appends the member to its end.
	// Returns ErrConflict if the membership is not PENDING.
	ActivateMember(ctx context.Context, memberID string, joinedAt int64) error

	// RejectMember moves a membership from PENDING to REJECTED.
	// Returns ErrConflict if the membership is not PENDING.
	RejectMember(ctx context.Context, memberID string) error

	// OpenRound advances the group's round pointer from seq-1 to seq and
	// inserts the round's obligations. Returns ErrConflict if the pointer
	// is not at seq-1.
	OpenRound(ctx context.Context, groupID string, seq int, rows []*models.ContributionRound) error

	// GetContribution retrieves one obligation by ID.
	GetContribution(ctx context.Context, contributionID string) (*models.ContributionRound, error)

	// ListContributions retrieves the obligations of one round sequence.
	ListContributions(ctx context.Context, groupID string, seq int) ([]*models.ContributionRound, error)

	// ValidateContribution marks an UNVALIDATED obligation VALIDATED and
	// credits the group's escrow balance by its amount.
	// Returns ErrConflict if the obligation is already VALIDATED.
	ValidateContribution(ctx context.Context, contributionID string, feeAmount, paidAt int64) error

	// CreatePenalty persists a new UNPAID penalty.
	CreatePenalty(ctx context.Context, penalty *models.Penalty) error

	// GetPenalty retrieves a penalty by ID.
	GetPenalty(ctx context.Context, penaltyID string) (*models.Penalty, error)

	// ListPenalties retrieves all penalties of a group, newest first.
	ListPenalties(ctx context.Context, groupID string) ([]*models.Penalty, error)

	// MarkPenaltyPaid moves a penalty from UNPAID to PAID.
	// Returns ErrConflict if it is already PAID.
	MarkPenaltyPaid(ctx context.Context, penaltyID string, paidAt int64) error

	// GetDistribution retrieves the distribution of one round sequence.
	GetDistribution(ctx context.Context, groupID string, seq int) (*models.Distribution, error)

	// ListDistributions retrieves all distributions of a group by sequence.
	ListDistributions(ctx context.Context, groupID string) ([]*models.Distribution, error)

	// RecordDistribution persists a distribution, debits its gross amount
	// from escrow and opens round d.Sequence+1 with the given obligations.
	// Returns ErrConflict if the round was already distributed, the pointer
	// moved, or escrow no longer equals d.Gross.
	RecordDistribution(ctx context.Context, d *models.Distribution, next []*models.ContributionRound) error

	// QuoteFee records fee as the fee charged under a wallet idempotency
	// key and returns the fee first recorded for that key. Retries of a
	// wallet call reuse the quote so the call replays with equal amounts.
	QuoteFee(ctx context.Context, key string, fee int64) (int64, error)

	// GetSetting retrieves a runtime setting. ok is false if unset.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)

	// SetSetting creates or replaces a runtime setting.
	SetSetting(ctx context.Context, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}

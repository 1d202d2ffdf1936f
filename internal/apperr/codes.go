// Package apperr provides the engine's error taxonomy.
//
// Every failure carries a stable, machine-readable Code so the calling
// surface can show a localized message, and a Kind that tells callers how to
// treat it (reject, retry, treat as already done).
package apperr

import "connectrpc.com/connect"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeDuplicateOrderEntry Code = "DUPLICATE_ORDER_ENTRY"
	CodeUnknownOrderEntry   Code = "UNKNOWN_ORDER_ENTRY"
	CodeIncompleteOrder     Code = "INCOMPLETE_ORDER"
	CodeInvalidInvitation   Code = "INVALID_INVITATION_CODE"

	// Conflict (benign when the intent was already achieved)
	CodeDuplicateMember      Code = "DUPLICATE_MEMBER"
	CodeAlreadyValidated     Code = "ALREADY_VALIDATED"
	CodeAlreadyPaid          Code = "ALREADY_PAID"
	CodeDistributionRecorded Code = "DISTRIBUTION_ALREADY_RECORDED"
	CodeRoundAlreadyOpen     Code = "ROUND_ALREADY_OPEN"
	CodeAlreadyInState       Code = "ALREADY_IN_STATE"

	// Precondition
	CodeMemberNotPending Code = "MEMBER_NOT_PENDING"
	CodeMemberNotActive  Code = "MEMBER_NOT_ACTIVE"
	CodeGroupNotActive   Code = "GROUP_NOT_ACTIVE"
	CodeGroupClosed      Code = "GROUP_CLOSED"
	CodeOrderLocked      Code = "ORDER_LOCKED"
	CodeOrderNotAssigned Code = "ORDER_NOT_ASSIGNED"
	CodeRoundIncomplete  Code = "ROUND_INCOMPLETE"
	CodeRoundNotOpen     Code = "ROUND_NOT_OPEN"
	CodeRoundNotDue      Code = "ROUND_NOT_DUE"

	// Not found
	CodeGroupNotFound   Code = "GROUP_NOT_FOUND"
	CodeMemberNotFound  Code = "MEMBER_NOT_FOUND"
	CodeRoundNotFound   Code = "ROUND_NOT_FOUND"
	CodePenaltyNotFound Code = "PENALTY_NOT_FOUND"

	// Authorization
	CodeNotAuthorized   Code = "NOT_AUTHORIZED"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// External dependency
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeWalletNotFound     Code = "WALLET_NOT_FOUND"
	CodeWalletDebitFailed  Code = "WALLET_DEBIT_FAILED"
	CodeWalletCreditFailed Code = "WALLET_CREDIT_FAILED"
	CodeWalletTimeout      Code = "WALLET_TIMEOUT"
	CodeLockUnavailable    Code = "LOCK_UNAVAILABLE"

	CodeInternal Code = "INTERNAL"
)

// Kind groups codes by how callers should react.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindConflict      Kind = "CONFLICT"
	KindPrecondition  Kind = "PRECONDITION"
	KindNotFound      Kind = "NOT_FOUND"
	KindAuthorization Kind = "AUTHORIZATION"
	KindExternal      Kind = "EXTERNAL_DEPENDENCY"
	KindInternal      Kind = "INTERNAL"
)

// Kind returns the category of c.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidArgument,
		CodeDuplicateOrderEntry,
		CodeUnknownOrderEntry,
		CodeIncompleteOrder,
		CodeInvalidInvitation:
		return KindValidation

	case CodeDuplicateMember,
		CodeAlreadyValidated,
		CodeAlreadyPaid,
		CodeDistributionRecorded,
		CodeRoundAlreadyOpen,
		CodeAlreadyInState:
		return KindConflict

	case CodeMemberNotPending,
		CodeMemberNotActive,
		CodeGroupNotActive,
		CodeGroupClosed,
		CodeOrderLocked,
		CodeOrderNotAssigned,
		CodeRoundIncomplete,
		CodeRoundNotOpen,
		CodeRoundNotDue:
		return KindPrecondition

	case CodeGroupNotFound,
		CodeMemberNotFound,
		CodeRoundNotFound,
		CodePenaltyNotFound:
		return KindNotFound

	case CodeNotAuthorized, CodeUnauthenticated:
		return KindAuthorization

	case CodeInsufficientFunds,
		CodeWalletNotFound,
		CodeWalletDebitFailed,
		CodeWalletCreditFailed,
		CodeWalletTimeout,
		CodeLockUnavailable:
		return KindExternal

	default:
		return KindInternal
	}
}

// ConnectCode maps a domain code to a Connect status code.
func (c Code) ConnectCode() connect.Code {
	switch c.Kind() {
	case KindValidation:
		return connect.CodeInvalidArgument
	case KindConflict:
		return connect.CodeAlreadyExists
	case KindPrecondition:
		return connect.CodeFailedPrecondition
	case KindNotFound:
		return connect.CodeNotFound
	case KindAuthorization:
		if c == CodeUnauthenticated {
			return connect.CodeUnauthenticated
		}
		return connect.CodePermissionDenied
	case KindExternal:
		switch c {
		case CodeInsufficientFunds:
			return connect.CodeFailedPrecondition
		case CodeWalletTimeout, CodeLockUnavailable:
			return connect.CodeDeadlineExceeded
		}
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

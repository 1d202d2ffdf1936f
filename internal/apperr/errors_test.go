package apperr

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
)

func TestCodeKind(t *testing.T) {
	tests := []struct {
		code Code
		kind Kind
		rpc  connect.Code
	}{
		{CodeDuplicateOrderEntry, KindValidation, connect.CodeInvalidArgument},
		{CodeDistributionRecorded, KindConflict, connect.CodeAlreadyExists},
		{CodeRoundIncomplete, KindPrecondition, connect.CodeFailedPrecondition},
		{CodePenaltyNotFound, KindNotFound, connect.CodeNotFound},
		{CodeNotAuthorized, KindAuthorization, connect.CodePermissionDenied},
		{CodeUnauthenticated, KindAuthorization, connect.CodeUnauthenticated},
		{CodeInsufficientFunds, KindExternal, connect.CodeFailedPrecondition},
		{CodeWalletCreditFailed, KindExternal, connect.CodeUnavailable},
		{CodeWalletTimeout, KindExternal, connect.CodeDeadlineExceeded},
		{CodeInternal, KindInternal, connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.code.Kind())
			assert.Equal(t, tt.rpc, tt.code.ConnectCode())
		})
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("record payment: %w", Wrap(CodeInternal, "persist", cause))

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, New(CodeInternal, "")))
	assert.False(t, errors.Is(err, New(CodeAlreadyPaid, "")))
	assert.Equal(t, CodeUnknown, CodeOf(cause))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(New(CodeAlreadyPaid, "penalty already paid")))
	assert.False(t, IsConflict(New(CodeInsufficientFunds, "balance too low")))
	assert.False(t, IsConflict(nil))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeRoundIncomplete, "round 1 incomplete").WithDetail("outstanding", "m3")
	assert.Equal(t, []string{"m3"}, err.Details["outstanding"])
}

// Package rotation computes payout orders.
//
// FIXED orders are validated to be a bijection onto the active member set.
// RANDOM orders are a Fisher-Yates shuffle driven by a PCG source, so the
// same seed always yields the same order. Seeds come from crypto/rand.
package rotation

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

var (
	ErrEmptyOrder = errors.New("rotation order is empty")
	ErrDuplicate  = errors.New("rotation order lists a member more than once")
	ErrUnknown    = errors.New("rotation order lists a member that is not active")
	ErrIncomplete = errors.New("rotation order is missing active members")
)

// OrderError reports which member IDs made an order invalid.
type OrderError struct {
	Err       error
	MemberIDs []string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.MemberIDs, ", "))
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// ValidateFixed checks that order contains every ID in active exactly once
// and nothing else. Duplicates are reported first, then unknown IDs, then
// missing ones.
func ValidateFixed(order, active []string) error {
	if len(order) == 0 {
		return ErrEmptyOrder
	}

	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	seen := make(map[string]bool, len(order))
	var dups, unknown []string
	for _, id := range order {
		if seen[id] {
			dups = append(dups, id)
			continue
		}
		seen[id] = true
		if !activeSet[id] {
			unknown = append(unknown, id)
		}
	}
	if len(dups) > 0 {
		return &OrderError{Err: ErrDuplicate, MemberIDs: dups}
	}
	if len(unknown) > 0 {
		return &OrderError{Err: ErrUnknown, MemberIDs: unknown}
	}

	var missing []string
	for _, id := range active {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &OrderError{Err: ErrIncomplete, MemberIDs: missing}
	}
	return nil
}

// Shuffle returns a uniformly random permutation of members determined by
// seed. members is not modified.
func Shuffle(members []string, seed uint64) []string {
	out := slices.Clone(members)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewSeed draws a shuffle seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

package rotation

import (
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFixed(t *testing.T) {
	active := []string{"a", "b", "c"}

	tests := []struct {
		name        string
		order       []string
		wantErr     error
		wantMembers []string
	}{
		{"valid permutation", []string{"c", "a", "b"}, nil, nil},
		{"empty", nil, ErrEmptyOrder, nil},
		{"duplicate", []string{"a", "b", "a"}, ErrDuplicate, []string{"a"}},
		{"unknown member", []string{"a", "b", "c", "z"}, ErrUnknown, []string{"z"}},
		{"missing member", []string{"a", "c"}, ErrIncomplete, []string{"b"}},
		{"duplicate reported before missing", []string{"a", "a"}, ErrDuplicate, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFixed(tt.order, active)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			var orderErr *OrderError
			if errors.As(err, &orderErr) {
				assert.Equal(t, tt.wantMembers, orderErr.MemberIDs)
			}
		})
	}
}

func TestShuffleIsReproducible(t *testing.T) {
	members := []string{"a", "b", "c", "d", "e", "f", "g"}

	first := Shuffle(members, 42)
	second := Shuffle(members, 42)
	assert.Equal(t, first, second, "same seed must yield same order")
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, members, "input must not be modified")
}

func TestShuffleSeedsDiffer(t *testing.T) {
	members := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	distinct := map[string]bool{}
	for seed := uint64(1); seed <= 20; seed++ {
		distinct[joinIDs(Shuffle(members, seed))] = true
	}
	assert.Greater(t, len(distinct), 1, "different seeds should produce different orders")
}


func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

// TestShuffleIsPermutation verifies the shuffle neither drops nor invents members.
// Property: sort(Shuffle(xs, seed)) == sort(xs)
func TestShuffleIsPermutation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("shuffle output is a permutation of its input", prop.ForAll(
		func(n int, seed uint64) bool {
			members := make([]string, n)
			for i := range members {
				members[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
			}
			shuffled := Shuffle(members, seed)
			if ValidateFixed(shuffled, members) != nil && n > 0 {
				return false
			}
			a, b := slices.Clone(members), slices.Clone(shuffled)
			slices.Sort(a)
			slices.Sort(b)
			return slices.Equal(a, b)
		},
		gen.IntRange(0, 60),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func joinIDs(ids []string) string {
	out := ""
	for _, id := range ids {
		out += id + ","
	}
	return out
}

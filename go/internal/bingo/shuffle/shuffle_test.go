package shuffle

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPermutation(t *testing.T, seq []int) {
	t.Helper()
	require.Len(t, seq, PoolSize)
	sorted := append([]int(nil), seq...)
	sort.Ints(sorted)
	for i, n := range sorted {
		require.Equal(t, i+1, n, "ball %d missing or duplicated", i+1)
	}
}

func TestGenerateIsDeterministicPermutation(t *testing.T) {
	seeds := []uint64{0, 1, 2, 42, 123456789, 1 << 63, ^uint64(0)}
	for _, seed := range seeds {
		first := Generate(seed)
		second := Generate(seed)
		assert.Equal(t, first, second, "seed %d", seed)
		assertPermutation(t, first)
	}
}

func TestGeneratePinnedSequence(t *testing.T) {
	// Pinned values are part of the published fairness contract.
	assert.Equal(t, []int{3, 31, 33, 8, 45, 9, 71, 37}, Generate(123456789)[:8])
	assert.Equal(t, []int{2, 56, 48, 30, 22, 75, 67, 10}, Generate(0)[:8])
	assert.Equal(t, []int{13, 41, 19, 15, 11, 45, 8, 50}, Generate(1)[:8])
}

func TestDifferentSeedsDiffer(t *testing.T) {
	assert.NotEqual(t, Generate(1), Generate(2))
}

func TestParseSeed(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{name: "decimal", in: "123456789", want: 123456789},
		{name: "hex", in: "0xff", want: 255},
		{name: "wide hex reduced", in: "0x" + repeat("ff", 32), want: ^uint64(0)},
		{name: "wide decimal reduced", in: "18446744073709551617", want: 1},
		{name: "padded", in: "  7 ", want: 7},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-5", wantErr: true},
		{name: "garbage", in: "seed", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSeed(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSeed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateFromStringMatchesReducedSeed(t *testing.T) {
	seq, err := GenerateFromString("0x" + repeat("ff", 32))
	require.NoError(t, err)
	assert.Equal(t, Generate(^uint64(0)), seq)
	assert.Equal(t, []int{49, 17, 13, 7, 11}, seq[:5])
}

func TestVerify(t *testing.T) {
	seq := Generate(99)
	assert.True(t, Verify(99, seq))
	assert.False(t, Verify(100, seq))
	assert.False(t, Verify(99, seq[:10]))

	tampered := append([]int(nil), seq...)
	tampered[0], tampered[1] = tampered[1], tampered[0]
	assert.False(t, Verify(99, tampered))
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

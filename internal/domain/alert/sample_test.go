package alert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewSample_DerivesTotal verifies the total is the sum of both counts.
func TestNewSample_DerivesTotal(t *testing.T) {
	t.Parallel()

	s := NewSample(12, 30, "abc", "")
	require.Equal(t, 42, s.Total)
	require.True(t, s.Above(41))
	require.False(t, s.Above(42))
}

// TestMateriallyDifferent covers every field the comparator looks at.
func TestMateriallyDifferent(t *testing.T) {
	t.Parallel()

	base := NewSample(10, 5, "c0ffee", "")

	cases := map[string]struct {
		prev *MetricSample
		next MetricSample
		want bool
	}{
		"no previous sample": {
			prev: nil,
			next: base,
			want: true,
		},
		"identical": {
			prev: &base,
			next: NewSample(10, 5, "c0ffee", ""),
			want: false,
		},
		"previous identity is ignored": {
			prev: &base,
			next: NewSample(10, 5, "c0ffee", "deadbeef"),
			want: false,
		},
		"identity changed": {
			prev: &base,
			next: NewSample(10, 5, "deadbeef", "c0ffee"),
			want: true,
		},
		"insertions and deletions swapped": {
			prev: &base,
			next: NewSample(5, 10, "c0ffee", ""),
			want: true,
		},
		"total changed": {
			prev: &base,
			next: NewSample(11, 5, "c0ffee", ""),
			want: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, MateriallyDifferent(tc.prev, tc.next))
		})
	}
}

// TestMetricSample_Identity checks abbreviation and commit detection.
func TestMetricSample_Identity(t *testing.T) {
	t.Parallel()

	s := NewSample(0, 0, "0123456789abcdef", "")
	require.Equal(t, "0123456", s.ShortIdentity())
	require.False(t, s.Committed())

	s = NewSample(0, 0, "abc", "abc")
	require.Equal(t, "abc", s.ShortIdentity())
	require.False(t, s.Committed())

	s = NewSample(0, 0, "def", "abc")
	require.True(t, s.Committed())
}

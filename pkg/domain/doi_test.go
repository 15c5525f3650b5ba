package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pidstore/pkg/domain-errors"
)

// TestParseDOI_Invariants validates the parsing invariant:
// "DOIs are lowercase 10.<digits>/<non-empty suffix> without whitespace"
//
// Justification: DOIs are case-insensitive and arrive from users and records
// in many spellings; one canonical form keeps store keys unique.
func TestParseDOI_Invariants(t *testing.T) {
	valid := []struct {
		in, want string
	}{
		{"10.5555/ABC-123", "10.5555/abc-123"},
		{"  10.5555/abc  ", "10.5555/abc"},
		{"doi:10.5555/abc", "10.5555/abc"},
		{"https://doi.org/10.5555/abc", "10.5555/abc"},
		{"HTTPS://DX.DOI.ORG/10.5555/A/B", "10.5555/a/b"},
		{"10.1000.10/x", "10.1000.10/x"},
	}
	for _, tt := range valid {
		t.Run("accepts "+tt.in, func(t *testing.T) {
			d, err := ParseDOI(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	invalid := []string{
		"",
		"   ",
		"doi:",
		"10.5555",
		"10.5555/",
		"11.5555/abc",
		"10./abc",
		"10.55a5/abc",
		"10.5555./abc",
		"10.5555/a b",
		"10.5555/a\x00b",
		"10.5555/" + strings.Repeat("x", 250),
		string([]byte{0xff, 0xfe}),
	}
	for _, in := range invalid {
		t.Run("rejects "+in, func(t *testing.T) {
			_, err := ParseDOI(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestDOIParts(t *testing.T) {
	d, err := ParseDOI("10.5555/a/b")
	require.NoError(t, err)
	assert.Equal(t, "10.5555", d.Prefix())
	assert.Equal(t, "a/b", d.Suffix())
}

func TestParseObjectID(t *testing.T) {
	t.Run("rejects empty, malformed and nil", func(t *testing.T) {
		for _, in := range []string{"", "not-a-uuid", uuid.Nil.String()} {
			_, err := ParseObjectID(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseObjectID(u.String())
		require.NoError(t, err)
		assert.Equal(t, u.String(), id.String())
	})
}

package phone

import (
	"errors"
	"testing"

	"github.com/go-socfony/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Valid(t *testing.T) {
	cases := map[string]string{
		"+86 138 0013 8000":  "+8613800138000",
		"+1 (415) 555-0100":  "+14155550100",
		"0044 20 7946 0958":  "+442079460958",
		" +380.67.123.45.67": "+380671234567",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "12345", "+0123456789", "+12ab4567890", "+1234567890123456"} {
		_, err := Normalize(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, domain.ErrBadRequest))
	}
}

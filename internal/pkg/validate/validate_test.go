package validate

import (
	"strings"
	"testing"

	"github.com/go-socfony/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_UploadIntent(t *testing.T) {
	ok := domain.CreateUploadIntentRequest{MD5: "D41D8CD98F00B204E9800998ECF8427E", Size: 0, MimeType: "image/png"}
	require.NoError(t, Struct(ok))

	bad := domain.CreateUploadIntentRequest{MD5: "xyz", Size: -1}
	err := Struct(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'MD5' failed 'md5hex'")
	assert.Contains(t, err.Error(), "field 'Size' failed 'gte'")
	assert.Contains(t, err.Error(), "field 'MimeType' failed 'required'")
}

func TestStruct_MomentMedia(t *testing.T) {
	good := domain.CreateMomentRequest{Media: []string{strings.Repeat("a", 64)}}
	require.NoError(t, Struct(good))

	bad := domain.CreateMomentRequest{Media: []string{"short"}}
	err := Struct(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nanoid64")
}

func TestUsernameAndID(t *testing.T) {
	assert.True(t, Username("alice_01"))
	assert.False(t, Username("al"))
	assert.False(t, Username("alice!"))
	assert.True(t, ID(strings.Repeat("A_-9", 16)))
	assert.False(t, ID(strings.Repeat("A", 63)))
}

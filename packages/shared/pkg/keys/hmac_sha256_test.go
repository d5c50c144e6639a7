package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSha256Hashing_Hash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		content string
		want    string
	}{
		{
			name:    "hello world",
			key:     "test-key",
			content: "hello world",
			want:    "18c4b268f0bbf8471eda56af3e70b1d4613d734dc538b4940b59931c412a1591",
		},
		{
			name:    "empty content",
			key:     "test-key",
			content: "",
			want:    "2711cc23e9ab1b8a9bc0fe991238da92671624a9ebdaf1c1abec06e7e9a14f9b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, NewHMACSHA256Hashing([]byte(tt.key)).Hash([]byte(tt.content)))
		})
	}
}

func TestHMACSha256Hashing_DifferentKey(t *testing.T) {
	t.Parallel()

	content := []byte("hello world")

	assert.NotEqual(t,
		NewHMACSHA256Hashing([]byte("test-key")).Hash(content),
		NewHMACSHA256Hashing([]byte("different-key")).Hash(content),
	)
}

func TestHMACSha256Hashing_Verify(t *testing.T) {
	t.Parallel()

	hasher := NewHMACSHA256Hashing([]byte("test-key"))
	content := []byte("hello world")
	digest := "18c4b268f0bbf8471eda56af3e70b1d4613d734dc538b4940b59931c412a1591"

	ok, err := hasher.Verify(content, digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify([]byte("hello world!"), digest)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify(content, digest[:10])
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = hasher.Verify(content, "not-hex")
	require.Error(t, err)
}

package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// SHA-256 of the empty string, a fixed reference vector.
const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty input",
			content: "",
			want:    "sha256-" + emptySHA256,
		},
		{
			name:    "hello world",
			content: "Hello world",
			want:    "sha256-64ec88ca00b268e5ba1a35678a1b5316d212f4f366b2477232534a8aeca37f3c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hash([]byte(tt.content)))
		})
	}
}

func TestHashIdempotent(t *testing.T) {
	content := []byte("some pasted article text")
	assert.Equal(t, Hash(content), Hash(content))
}

func TestHashDistinguishesSingleByte(t *testing.T) {
	a := Hash([]byte("content a"))
	b := Hash([]byte("content b"))
	assert.NotEqual(t, a, b)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, Hash([]byte("x")), HashString("x"))
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint([]byte(""))
	assert.Len(t, fp, 16)
	assert.Equal(t, emptySHA256[:16], fp)

	// Fingerprint is a truncation of the full digest.
	full := Hash([]byte("abc"))
	assert.Equal(t, full[len(Prefix):len(Prefix)+16], Fingerprint([]byte("abc")))
}

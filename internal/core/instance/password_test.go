package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePassword_Length(t *testing.T) {
	pw := GeneratePassword()
	assert.Len(t, pw, 16)
}

func TestGeneratePassword_CharsetOnly(t *testing.T) {
	pw := GeneratePassword()
	for _, c := range pw {
		assert.True(t, strings.ContainsRune(passwordCharset, c),
			"unexpected character %q in password", c)
	}
}

func TestGeneratePassword_AvoidsAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw := GeneratePassword()
		assert.NotContains(t, pw, "0")
		assert.NotContains(t, pw, "O")
		assert.NotContains(t, pw, "1")
		assert.NotContains(t, pw, "l")
		assert.NotContains(t, pw, "I")
	}
}

func TestGeneratePassword_Unique(t *testing.T) {
	a := GeneratePassword()
	b := GeneratePassword()
	assert.NotEqual(t, a, b)
}

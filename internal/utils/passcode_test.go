package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomPassCode_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := RandomPassCode()
		assert.Len(t, code, PassCodeLength)
		assert.True(t, IsPassCodeShaped(code), code)
		for _, r := range code {
			assert.NotContains(t, "0O1I", string(r), "ambiguous glyph in %s", code)
		}
		seen[code] = true
	}
	// 200 draws from a 32^6 space colliding would be a broken generator.
	assert.Greater(t, len(seen), 195)
}

func TestNormalizePassCode(t *testing.T) {
	assert.Equal(t, "AB39KX", NormalizePassCode(" ab3 9kx "))
	assert.Equal(t, "AB39KX", NormalizePassCode("AB39KX"))
}

func TestIsPassCodeShaped(t *testing.T) {
	assert.True(t, IsPassCodeShaped("AB39KX"))
	assert.False(t, IsPassCodeShaped("AB39K"))   // too short
	assert.False(t, IsPassCodeShaped("AB39KXX")) // too long
	assert.False(t, IsPassCodeShaped("AB30KX"))  // 0 not in alphabet
	assert.False(t, IsPassCodeShaped("hello"))
	assert.False(t, IsPassCodeShaped(strings.Repeat("A", 6)+" "))
}

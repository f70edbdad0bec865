package utils

import (
	"crypto/rand"
	"math/big"
)

// passCodeAlphabet drops 0/O/1/I so a code read over the phone or typed
// from a paper note never hinges on a lookalike glyph.
const passCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const PassCodeLength = 6

// RandomPassCode generates a candidate pass code. Uniqueness is the
// store's problem; this only guarantees format.
func RandomPassCode() string {
	b := make([]byte, PassCodeLength)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(passCodeAlphabet))))
		if err != nil {
			panic(err)
		}
		b[i] = passCodeAlphabet[num.Int64()]
	}
	return string(b)
}

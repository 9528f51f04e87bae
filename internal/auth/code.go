package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// codeAlphabet is the character set for the random portion of a
// confirmation code seed: ASCII letters and digits.
const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeSeedLength = 20

// NewConfirmationCode produces the opaque token string mailed to a user
// during signup: a 20-character cryptographically random string is
// concatenated with the username and hashed with SHA-256. The hex digest
// is both stored and delivered — the exchange endpoint compares the
// submitted code byte-for-byte against the stored one.
//
// The username suffix ties the seed to the account; the random prefix
// makes the code unpredictable even for a known username.
func NewConfirmationCode(username string) (string, error) {
	seed := make([]byte, codeSeedLength)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	for i, b := range seed {
		seed[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	sum := sha256.Sum256(append(seed, username...))
	return hex.EncodeToString(sum[:]), nil
}

// CodesEqual compares a submitted confirmation code against the stored one
// in constant time, so the comparison leaks nothing about how far it got.
func CodesEqual(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

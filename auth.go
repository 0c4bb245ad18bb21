package mokmanager

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// PasswordMaxCodeUnits and PasswordMinCodeUnits are the bounds enforced on
// a typed password: the maximum is a hard read limit, the minimum is
// advisory only — a short password is warned about but still accepted for
// hashing.
const (
	PasswordMaxCodeUnits = 16
	PasswordMinCodeUnits = 8
)

// maxAuthAttempts is the in-session retry budget before the caller must
// treat the request as denied.
const maxAuthAttempts = 3

// ErrAccessDenied is returned by Authenticate and Commit when three
// consecutive password attempts fail to match MokAuth.
var ErrAccessDenied = errors.New("mokmanager: access denied")

// Authenticator proves a staged request is being committed by the same
// operator session that staged it, by checking a candidate hash of the
// request bytes plus a typed password against the pre-shared MokAuth
// digest.
type Authenticator struct {
	console Console
}

// NewAuthenticator builds an Authenticator that prompts on console.
func NewAuthenticator(console Console) *Authenticator {
	return &Authenticator{console: console}
}

// Authenticate prompts for a password up to maxAuthAttempts times.
// requestBytes may be nil, matching the "delete all" path where the
// candidate hash covers only the typed password. It returns nil on a
// match and ErrAccessDenied once every attempt has failed.
func (a *Authenticator) Authenticate(requestBytes []byte, expected [32]byte) error {
	for attempt := 1; attempt <= maxAuthAttempts; attempt++ {
		a.console.Printf("Password (%d-%d characters): ", PasswordMinCodeUnits, PasswordMaxCodeUnits)
		units, err := a.console.ReadPassword(PasswordMaxCodeUnits)
		if err != nil {
			return err
		}
		a.console.Printf("\n")
		if len(units) < PasswordMinCodeUnits {
			a.console.Printf("Password must be at least %d characters\n", PasswordMinCodeUnits)
		}
		candidate := CandidateDigest(requestBytes, units)
		if hmac.Equal(candidate[:], expected[:]) {
			return nil
		}
		if attempt < maxAuthAttempts {
			a.console.Printf("Authentication failed, try again\n")
		}
	}
	return ErrAccessDenied
}

// CandidateDigest computes SHA-256(requestBytes || utf16(password)),
// matching the contract the OS-side staging utility used to produce
// MokAuth. The password's UTF-16 code units are hashed exactly as typed:
// no length prefix, no terminator, no normalization.
func CandidateDigest(requestBytes []byte, password []uint16) [32]byte {
	h := sha256.New()
	h.Write(requestBytes)
	var unit [2]byte
	for _, u := range password {
		binary.LittleEndian.PutUint16(unit[:], u)
		h.Write(unit[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

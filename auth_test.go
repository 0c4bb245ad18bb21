package mokmanager

import "testing"

// P5: the commit is accepted iff SHA-256(r || utf16(p)) == MokAuth.
func TestAuthenticateAccepts(t *testing.T) {
	request := []byte("staged request bytes")
	password := utf16Units("hunter2")
	expected := CandidateDigest(request, password)

	fc := &fakeConsole{passwords: [][]uint16{password}}
	auth := NewAuthenticator(fc)
	if err := auth.Authenticate(request, expected); err != nil {
		t.Fatalf("Authenticate() = %v, want nil", err)
	}
}

func TestAuthenticateEmptyRequest(t *testing.T) {
	password := utf16Units("hunter2")
	expected := CandidateDigest(nil, password)

	fc := &fakeConsole{passwords: [][]uint16{password}}
	auth := NewAuthenticator(fc)
	if err := auth.Authenticate(nil, expected); err != nil {
		t.Fatalf("Authenticate() = %v, want nil", err)
	}
}

// Scenario 3: three wrong passwords deny access.
func TestAuthenticateDeniesAfterThreeAttempts(t *testing.T) {
	request := []byte("staged request bytes")
	expected := CandidateDigest(request, utf16Units("correct-horse"))

	fc := &fakeConsole{passwords: [][]uint16{
		utf16Units("wrong-one"),
		utf16Units("wrong-two"),
		utf16Units("wrong-three"),
	}}
	auth := NewAuthenticator(fc)
	err := auth.Authenticate(request, expected)
	if err != ErrAccessDenied {
		t.Fatalf("Authenticate() = %v, want ErrAccessDenied", err)
	}
}

func TestAuthenticateRetriesThenSucceeds(t *testing.T) {
	request := []byte("staged request bytes")
	expected := CandidateDigest(request, utf16Units("correct-horse"))

	fc := &fakeConsole{passwords: [][]uint16{
		utf16Units("wrong-one"),
		utf16Units("correct-horse"),
	}}
	auth := NewAuthenticator(fc)
	if err := auth.Authenticate(request, expected); err != nil {
		t.Fatalf("Authenticate() = %v, want nil", err)
	}
}

// The minimum-length check is advisory only: a short password that
// matches is still accepted.
func TestAuthenticateAcceptsShortMatchingPassword(t *testing.T) {
	request := []byte("req")
	short := utf16Units("abc")
	expected := CandidateDigest(request, short)

	fc := &fakeConsole{passwords: [][]uint16{short}}
	auth := NewAuthenticator(fc)
	if err := auth.Authenticate(request, expected); err != nil {
		t.Fatalf("Authenticate() = %v, want nil", err)
	}
}

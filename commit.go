package mokmanager

import "fmt"

// CommitLayer drives MokList's lifecycle: appending an approved trust set,
// clearing it on "delete all", and gating both behind the password-hash
// authenticator when the caller requires it.
type CommitLayer struct {
	store VariableStore
	auth  *Authenticator
}

// NewCommitLayer builds a CommitLayer over store, authenticating against
// auth when Commit is called with requireAuth.
func NewCommitLayer(store VariableStore, auth *Authenticator) *CommitLayer {
	return &CommitLayer{store: store, auth: auth}
}

// Append concatenates trustSet onto the persistent MokList variable.
// Ordering across a session is irrelevant: MokList is consumed as an
// unordered union of entries.
func (c *CommitLayer) Append(trustSet []byte) error {
	if err := c.store.Append(VarMokList, trustSet); err != nil {
		return fmt.Errorf("append MokList: %w", err)
	}
	return nil
}

// Clear removes every entry from MokList via a zero-length append-write,
// which the variable store contract defines as a full clear.
func (c *CommitLayer) Clear() error {
	if err := c.store.Append(VarMokList, nil); err != nil {
		return fmt.Errorf("clear MokList: %w", err)
	}
	return nil
}

// Commit authenticates (when requireAuth) and then appends requestBytes to
// MokList, or clears MokList if requestBytes is empty. Certificate and hash
// imports read from disk pass requireAuth=false, since no authenticator
// digest was pre-shared for a request that originated on this boot rather
// than the prior OS session.
func (c *CommitLayer) Commit(requestBytes []byte, requireAuth bool) error {
	if requireAuth {
		digest, ok, err := c.store.Get(VarMokAuth)
		if err != nil {
			return fmt.Errorf("read MokAuth: %w", err)
		}
		if !ok || len(digest) != 32 {
			return ErrAccessDenied
		}
		var expected [32]byte
		copy(expected[:], digest)
		if err := c.auth.Authenticate(requestBytes, expected); err != nil {
			return err
		}
	}
	if len(requestBytes) == 0 {
		return c.Clear()
	}
	return c.Append(requestBytes)
}

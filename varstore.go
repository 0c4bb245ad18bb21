package mokmanager

// Well-known variable names under the shim-lock vendor GUID.
const (
	VarMokNew  = "MokNew"
	VarMokAuth = "MokAuth"
	VarMokList = "MokList"
)

// VariableStore is the injected capability standing in for the firmware
// non-volatile variable store. Append-write semantics mean a write
// concatenates onto the existing value rather than replacing it; an
// Append of zero-length data is defined to fully clear the variable.
type VariableStore interface {
	// Get returns the current value of name. ok is false if the variable
	// does not exist.
	Get(name string) (data []byte, ok bool, err error)

	// Append writes data onto name using append-write semantics. An
	// empty data clears the variable entirely.
	Append(name string, data []byte) error

	// Delete removes name entirely, as distinct from clearing it via a
	// zero-length Append: MokNew and MokAuth are deleted, not cleared, on
	// orchestrator exit.
	Delete(name string) error
}

package mokmanager

import "github.com/google/uuid"

// GUID identifies a signature-list type or an entry owner. The wire format
// calls for a 16-byte opaque identifier; uuid.UUID is exactly that, so it
// is reused here rather than hand-rolling a parallel 16-byte type.
type GUID = uuid.UUID

// Well-known GUIDs recognized by the signature-list codec and the
// enrollment pipeline. Values match the ones the shim and its MokManager
// use on real hardware, so signature lists produced by this module are
// byte-compatible with lists produced or consumed elsewhere in the boot
// chain.
var (
	// CertX509GUID marks a signature list whose entries carry DER-encoded
	// X.509 certificates.
	CertX509GUID = uuid.MustParse("a5c059a1-94e4-4aa7-87b5-ab155c2bf072")

	// HashSHA256GUID marks a signature list whose entries carry 32-byte
	// SHA-256 image hashes.
	HashSHA256GUID = uuid.MustParse("c1c41626-504c-4092-aca9-41f936934328")

	// ShimLockGUID is the vendor GUID under which MokNew, MokAuth, and
	// MokList are stored, and the owner GUID stamped on entries this
	// module enrolls itself.
	ShimLockGUID = uuid.MustParse("605dab50-e046-4300-abb6-3dd810dd8b23")
)

// recognizedListType reports whether typ is one of the two list types this
// module understands.
func recognizedListType(typ GUID) bool {
	return typ == CertX509GUID || typ == HashSHA256GUID
}

// uuidFromBytes parses a 16-byte wire GUID. The wire uses the EFI_GUID
// layout, whose first three fields (4, 2 and 2 bytes) are little-endian,
// while uuid.UUID holds all sixteen bytes in the big-endian order of its
// string form; the field swap is its own inverse, so uuidBytes performs it
// in both directions.
func uuidFromBytes(b []byte) (GUID, error) {
	g, err := uuid.FromBytes(b)
	if err != nil {
		return g, err
	}
	return GUID(uuidBytes(g)), nil
}

// uuidBytes returns g's 16-byte wire representation in the EFI_GUID layout.
func uuidBytes(g GUID) []byte {
	return []byte{g[3], g[2], g[1], g[0], g[5], g[4], g[7], g[6],
		g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15]}
}

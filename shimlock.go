package mokmanager

import "fmt"

// PEContext is the parsed-image handle the shim-lock protocol hands back
// from Context and expects back in Hash. It carries nothing but the raw
// image bytes: the real protocol's context also records section layout,
// but this module never needs more than what PEImageHash requires to
// locate its exclusion ranges.
type PEContext struct {
	image []byte
}

// ShimLockProtocol models the firmware's shim-lock protocol capability:
// given a loaded PE/COFF image, build a context, then hash it, producing
// the digests used to enroll or match a MOK hash entry.
type ShimLockProtocol interface {
	Context(image []byte) (*PEContext, error)
	Hash(ctx *PEContext) (sha256sum [32]byte, sha1sum [20]byte, err error)
}

// LocalShimLockProtocol implements ShimLockProtocol directly against the
// PE/COFF parser in this module, standing in for the firmware protocol
// when this module runs outside an actual shim.
type LocalShimLockProtocol struct{}

// Context implements ShimLockProtocol.
func (LocalShimLockProtocol) Context(image []byte) (*PEContext, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("mokmanager: empty image")
	}
	return &PEContext{image: image}, nil
}

// Hash implements ShimLockProtocol.
func (LocalShimLockProtocol) Hash(ctx *PEContext) (sha256sum [32]byte, sha1sum [20]byte, err error) {
	if ctx == nil {
		return sha256sum, sha1sum, fmt.Errorf("mokmanager: nil context")
	}
	return PEImageHash(ctx.image)
}

package mokmanager

import (
	"crypto/sha1" //nolint:gosec // Authenticode hash component, not a trust decision
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotAPEImage is returned when the bytes handed to PEImageHash do not
// begin with a recognizable DOS/PE header.
var ErrNotAPEImage = errors.New("mokmanager: not a PE/COFF image")

const (
	peOptionalMagicPE32      = 0x10b
	peOptionalMagicPE32Plus  = 0x20b
	imageDirectoryEntryCert  = 4
	minOptionalHeaderSize    = 68
	dosHeaderPEOffsetField   = 0x3C
	coffFileHeaderSize       = 20
	checksumFieldRelOffset   = 64
)

// byteRange is a half-open [start, end) span of the image being hashed.
type byteRange struct{ start, end uint32 }

// PEImageHash computes the PE/COFF "Authenticode" digest of data: every
// byte of the image except the header checksum field, the Certificate
// Table directory entry, and the Certificate Table itself. This is the
// concrete implementation behind the shim-lock protocol's hash method,
// since computing an image's trust hash the same way the shim verifies it
// is the entire point of enrolling it. Returns the SHA-256 digest used for
// the MOK entry and, incidentally, a SHA-1 digest produced as a side
// effect of sharing one hashing pass over the same excluded-range image.
func PEImageHash(data []byte) (sha256sum [32]byte, sha1sum [20]byte, err error) {
	excluded, size, err := authenticodeExclusions(data)
	if err != nil {
		return sha256sum, sha1sum, err
	}

	h256 := sha256.New()
	h1 := sha1.New() //nolint:gosec // see PEImageHash doc comment
	for _, r := range complementRanges(excluded, size) {
		chunk := data[r.start:r.end]
		h256.Write(chunk)
		h1.Write(chunk)
	}
	copy(sha256sum[:], h256.Sum(nil))
	copy(sha1sum[:], h1.Sum(nil))
	return sha256sum, sha1sum, nil
}

// authenticodeExclusions locates the checksum field, the Certificate Table
// directory entry, and (if present) the Certificate Table, following the
// same field layout Authenticode hashing has always used for PE32 and
// PE32+ images alike.
func authenticodeExclusions(data []byte) ([]byteRange, uint32, error) {
	size := uint32(len(data))
	if size < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return nil, 0, ErrNotAPEImage
	}
	peOffset := binary.LittleEndian.Uint32(data[dosHeaderPEOffsetField:])
	if uint64(peOffset)+4+coffFileHeaderSize+2 > uint64(size) {
		return nil, 0, ErrNotAPEImage
	}
	if string(data[peOffset:peOffset+4]) != "PE\x00\x00" {
		return nil, 0, ErrNotAPEImage
	}

	coffOffset := peOffset + 4
	sizeOfOptionalHeader := binary.LittleEndian.Uint16(data[coffOffset+16 : coffOffset+18])
	optionalHeaderOffset := coffOffset + coffFileHeaderSize

	if uint64(optionalHeaderOffset)+uint64(sizeOfOptionalHeader) > uint64(size) {
		return nil, 0, fmt.Errorf("%w: optional header exceeds file length", ErrNotAPEImage)
	}
	if sizeOfOptionalHeader < minOptionalHeaderSize {
		return nil, 0, fmt.Errorf("%w: optional header too small for authenticode", ErrNotAPEImage)
	}

	magic := binary.LittleEndian.Uint16(data[optionalHeaderOffset : optionalHeaderOffset+2])
	var is64 bool
	switch magic {
	case peOptionalMagicPE32:
		is64 = false
	case peOptionalMagicPE32Plus:
		is64 = true
	default:
		return nil, 0, fmt.Errorf("%w: unrecognized optional header magic", ErrNotAPEImage)
	}

	checksumOffset := optionalHeaderOffset + checksumFieldRelOffset
	exclusions := []byteRange{{checksumOffset, checksumOffset + 4}}

	var rvaBase, certBase uint32
	if is64 {
		rvaBase, certBase = optionalHeaderOffset+108, optionalHeaderOffset+144
	} else {
		rvaBase, certBase = optionalHeaderOffset+92, optionalHeaderOffset+128
	}
	if uint64(optionalHeaderOffset)+uint64(sizeOfOptionalHeader) < uint64(rvaBase)+4 {
		return exclusions, size, nil
	}
	numberOfRvaAndSizes := binary.LittleEndian.Uint32(data[rvaBase : rvaBase+4])
	if numberOfRvaAndSizes < imageDirectoryEntryCert+1 {
		return exclusions, size, nil
	}
	if uint64(optionalHeaderOffset)+uint64(sizeOfOptionalHeader) < uint64(certBase)+8 {
		return exclusions, size, nil
	}
	exclusions = append(exclusions, byteRange{certBase, certBase + 8})

	address := binary.LittleEndian.Uint32(data[certBase : certBase+4])
	certSize := binary.LittleEndian.Uint32(data[certBase+4 : certBase+8])
	if certSize == 0 {
		return exclusions, size, nil
	}
	if uint64(address) < uint64(optionalHeaderOffset)+uint64(sizeOfOptionalHeader) ||
		uint64(address)+uint64(certSize) > uint64(size) {
		return exclusions, size, nil
	}
	exclusions = append(exclusions, byteRange{address, address + certSize})
	return exclusions, size, nil
}

// complementRanges returns the byte ranges of [0,size) not covered by any
// range in excluded, in ascending order, matching Authenticode's "hash
// everything except these holes" rule.
func complementRanges(excluded []byteRange, size uint32) []byteRange {
	sortRanges(excluded)
	var out []byteRange
	cursor := uint32(0)
	for _, r := range excluded {
		if r.start > cursor {
			out = append(out, byteRange{cursor, r.start})
		}
		if r.end > cursor {
			cursor = r.end
		}
	}
	if cursor < size {
		out = append(out, byteRange{cursor, size})
	}
	return out
}

func sortRanges(r []byteRange) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j-1].start > r[j].start; j-- {
			r[j-1], r[j] = r[j], r[j-1]
		}
	}
}

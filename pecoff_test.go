package mokmanager

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildPE32 assembles a minimal, syntactically valid PE32 image with an
// optional certificate table appended at the end. optionalHeaderSize is
// padded out to 224 bytes (standard fields + 16 data directories), which is
// enough room for the NumberOfRvaAndSizes field and the Certificate Table
// directory entry used by authenticodeExclusions.
func buildPE32(t *testing.T, checksum uint32, certBytes []byte) []byte {
	t.Helper()
	const (
		peOffset             = 0x80
		optionalHeaderSize   = 224
		numberOfDataDirs     = 16
		optionalHeaderOffset = peOffset + 4 + coffFileHeaderSize
	)

	buf := make([]byte, optionalHeaderOffset+optionalHeaderSize)
	buf[0], buf[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(buf[dosHeaderPEOffsetField:], peOffset)
	copy(buf[peOffset:], []byte("PE\x00\x00"))

	coffOffset := peOffset + 4
	binary.LittleEndian.PutUint16(buf[coffOffset+16:coffOffset+18], optionalHeaderSize)

	binary.LittleEndian.PutUint16(buf[optionalHeaderOffset:], peOptionalMagicPE32)
	binary.LittleEndian.PutUint32(buf[optionalHeaderOffset+checksumFieldRelOffset:], checksum)
	binary.LittleEndian.PutUint32(buf[optionalHeaderOffset+92:], numberOfDataDirs)

	if len(certBytes) > 0 {
		certOffset := uint32(len(buf))
		buf = append(buf, certBytes...)
		certBase := optionalHeaderOffset + 128
		binary.LittleEndian.PutUint32(buf[certBase:], certOffset)
		binary.LittleEndian.PutUint32(buf[certBase+4:], uint32(len(certBytes)))
	}
	return buf
}

func TestPEImageHashRejectsNonPE(t *testing.T) {
	_, _, err := PEImageHash([]byte("not a pe file at all"))
	if err == nil {
		t.Fatal("expected error for non-PE input")
	}
}

func TestPEImageHashIgnoresChecksumField(t *testing.T) {
	a := buildPE32(t, 0x11111111, nil)
	b := buildPE32(t, 0x22222222, nil)

	sum256a, sum1a, err := PEImageHash(a)
	if err != nil {
		t.Fatal(err)
	}
	sum256b, sum1b, err := PEImageHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if sum256a != sum256b {
		t.Fatal("checksum field change altered the SHA-256 digest")
	}
	if sum1a != sum1b {
		t.Fatal("checksum field change altered the SHA-1 digest")
	}
}

func TestPEImageHashIgnoresCertificateTableContent(t *testing.T) {
	a := buildPE32(t, 0, bytes.Repeat([]byte{0xAA}, 64))
	b := buildPE32(t, 0, bytes.Repeat([]byte{0xBB}, 64))

	sum256a, _, err := PEImageHash(a)
	if err != nil {
		t.Fatal(err)
	}
	sum256b, _, err := PEImageHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if sum256a != sum256b {
		t.Fatal("certificate table content change altered the digest")
	}
}

func TestPEImageHashDiffersOnCodeChange(t *testing.T) {
	a := buildPE32(t, 0, nil)
	b := buildPE32(t, 0, nil)
	b[len(b)-1] ^= 0xFF

	sum256a, _, err := PEImageHash(a)
	if err != nil {
		t.Fatal(err)
	}
	sum256b, _, err := PEImageHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if sum256a == sum256b {
		t.Fatal("expected digest to change when image bytes change")
	}
}

func TestPEImageHashStableAcrossCertPresence(t *testing.T) {
	withoutCert := buildPE32(t, 0, nil)
	withCert := buildPE32(t, 0, []byte{0x01, 0x02, 0x03})

	sum256a, _, err := PEImageHash(withoutCert)
	if err != nil {
		t.Fatal(err)
	}
	sum256b, _, err := PEImageHash(withCert)
	if err != nil {
		t.Fatal(err)
	}
	if sum256a != sum256b {
		t.Fatal("appending a certificate table should not change the hash of the unsigned image body")
	}
}

package mokmanager

import (
	"encoding/binary"
	"iter"
)

// EntryType distinguishes the two kinds of trust material a signature list
// can carry.
type EntryType int

const (
	// EntryTypeCert marks a DER-encoded X.509 certificate payload.
	EntryTypeCert EntryType = iota
	// EntryTypeHash marks a 32-byte SHA-256 image-hash payload.
	EntryTypeHash
)

// listHeaderSize is the fixed 28-byte prefix of every signature list:
// type GUID (16) + total list size (4) + header size (4) + entry size (4).
const listHeaderSize = 16 + 4 + 4 + 4

// hashEntrySize is the only entry_size a hash-typed list may declare:
// a 16-byte owner GUID plus a 32-byte SHA-256 digest.
const hashEntrySize = 16 + 32

// hashPayloadSize is the length of a hash entry's payload once the owner
// GUID has been stripped off.
const hashPayloadSize = 32

// Entry is a single piece of trust material read out of a signature list,
// together with the owner GUID the codec preserves opaquely.
type Entry struct {
	Type    EntryType
	Owner   GUID
	Payload []byte
}

type listHeader struct {
	Type       GUID
	ListSize   uint32
	HeaderSize uint32
	EntrySize  uint32
}

func decodeListHeader(b []byte) (listHeader, error) {
	var h listHeader
	typ, err := uuidFromBytes(b[0:16])
	if err != nil {
		return h, err
	}
	h.Type = typ
	h.ListSize = binary.LittleEndian.Uint32(b[16:20])
	h.HeaderSize = binary.LittleEndian.Uint32(b[20:24])
	h.EntrySize = binary.LittleEndian.Uint32(b[24:28])
	return h, nil
}

func (h listHeader) encode() []byte {
	b := make([]byte, listHeaderSize)
	copy(b[0:16], uuidBytes(h.Type))
	binary.LittleEndian.PutUint32(b[16:20], h.ListSize)
	binary.LittleEndian.PutUint32(b[20:24], h.HeaderSize)
	binary.LittleEndian.PutUint32(b[24:28], h.EntrySize)
	return b
}

// Iterate walks the concatenation of signature lists in data and yields
// every well-formed entry. It never panics and always terminates: a
// truncated or malformed header stops iteration at that point rather than
// reading past the end of data, and a list of an unrecognized type, or a
// hash-typed list with the wrong entry size, is skipped by advancing past
// its declared list size so that each step makes monotonic progress of
// exactly one list.
func Iterate(data []byte) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for len(data) >= listHeaderSize {
			h, err := decodeListHeader(data)
			if err != nil {
				return
			}
			if h.ListSize < listHeaderSize || uint64(h.ListSize) > uint64(len(data)) {
				return
			}
			list := data[listHeaderSize:h.ListSize]
			data = data[h.ListSize:]

			if !recognizedListType(h.Type) {
				continue
			}
			if h.Type == HashSHA256GUID && h.EntrySize != hashEntrySize {
				continue
			}
			if h.EntrySize < 16 || uint64(h.HeaderSize) > uint64(len(list)) {
				continue
			}
			body := list[h.HeaderSize:]
			entryType := EntryTypeCert
			if h.Type == HashSHA256GUID {
				entryType = EntryTypeHash
			}
			for uint64(len(body)) >= uint64(h.EntrySize) {
				rec := body[:h.EntrySize]
				body = body[h.EntrySize:]
				owner, err := uuidFromBytes(rec[0:16])
				if err != nil {
					continue
				}
				payload := rec[16:]
				if !yield(Entry{Type: entryType, Owner: owner, Payload: payload}) {
					return
				}
			}
		}
	}
}

// Count consumes seq and reports how many entries it yielded.
func Count(seq iter.Seq[Entry]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

// Entries materializes seq into a slice, indexed the way the enroll
// screen numbers keys for operator review.
func Entries(seq iter.Seq[Entry]) []Entry {
	var out []Entry
	for e := range seq {
		out = append(out, e)
	}
	return out
}

// EncodeCert produces a one-entry certificate signature list wrapping der
// under owner.
func EncodeCert(der []byte, owner GUID) []byte {
	return encodeList(CertX509GUID, owner, der)
}

// EncodeHash produces a one-entry SHA-256 hash signature list wrapping
// sum under owner. sum must be 32 bytes.
func EncodeHash(sum [32]byte, owner GUID) []byte {
	return encodeList(HashSHA256GUID, owner, sum[:])
}

func encodeList(typ GUID, owner GUID, payload []byte) []byte {
	entrySize := 16 + len(payload)
	listSize := listHeaderSize + entrySize
	h := listHeader{
		Type:       typ,
		ListSize:   uint32(listSize),
		HeaderSize: 0,
		EntrySize:  uint32(entrySize),
	}
	out := make([]byte, 0, listSize)
	out = append(out, h.encode()...)
	out = append(out, uuidBytes(owner)...)
	out = append(out, payload...)
	return out
}

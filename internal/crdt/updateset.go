// Package crdt holds the document merge primitive used by the document store.
//
// Stored document state is an update set: a canonical, digest-ordered list of the
// distinct updates that have been accepted. Merging is set union, so it is
// commutative, associative and idempotent regardless of arrival order. Clients may
// send either a single raw update or a previously merged set.
package crdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

var (
	setMagic    = []byte("UPS1")
	vectorMagic = []byte("UPV1")
)

// digestPrefix is the number of digest bytes published in a state vector.
const digestPrefix = 8

// ErrCorrupt is returned when a blob carries the set header but cannot be decoded.
var ErrCorrupt = errors.New("crdt: corrupt update set")

// Merger merges update blobs and summarizes what a blob has incorporated.
type Merger interface {
	Merge(prev, next []byte) ([]byte, error)
	StateVector(state []byte) ([]byte, error)
}

// UpdateSet is the default Merger.
type UpdateSet struct{}

type record struct {
	digest [blake2b.Size256]byte
	body   []byte
}

// Merge returns the canonical encoding of the union of prev and next.
// A nil prev adopts next as the initial state.
func (UpdateSet) Merge(prev, next []byte) ([]byte, error) {
	a, err := decode(prev)
	if err != nil {
		return nil, err
	}
	b, err := decode(next)
	if err != nil {
		return nil, err
	}
	return encode(union(a, b)), nil
}

// StateVector returns a deterministic summary of the updates held by state:
// header, count and the leading bytes of each update digest in canonical order.
func (UpdateSet) StateVector(state []byte) ([]byte, error) {
	records, err := decode(state)
	if err != nil {
		return nil, err
	}
	records = union(records, nil)

	var buf bytes.Buffer
	buf.Write(vectorMagic)
	buf.Write(binary.AppendUvarint(nil, uint64(len(records))))
	for _, r := range records {
		buf.Write(r.digest[:digestPrefix])
	}
	return buf.Bytes(), nil
}

func decode(blob []byte) ([]record, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if !bytes.HasPrefix(blob, setMagic) {
		return []record{newRecord(blob)}, nil
	}

	rest := blob[len(setMagic):]
	count, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad count", ErrCorrupt)
	}
	rest = rest[n:]
	if count > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: count %d exceeds payload", ErrCorrupt, count)
	}

	records := make([]record, 0, count)
	for i := uint64(0); i < count; i++ {
		size, n := binary.Uvarint(rest)
		if n <= 0 || size > uint64(len(rest)-n) {
			return nil, fmt.Errorf("%w: bad record %d", ErrCorrupt, i)
		}
		rest = rest[n:]
		records = append(records, newRecord(rest[:size]))
		rest = rest[size:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}
	return records, nil
}

func newRecord(body []byte) record {
	cp := make([]byte, len(body))
	copy(cp, body)
	return record{digest: blake2b.Sum256(cp), body: cp}
}

func union(a, b []record) []record {
	seen := make(map[[blake2b.Size256]byte]struct{}, len(a)+len(b))
	out := make([]record, 0, len(a)+len(b))
	for _, set := range [][]record{a, b} {
		for _, r := range set {
			if _, ok := seen[r.digest]; ok {
				continue
			}
			seen[r.digest] = struct{}{}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].digest[:], out[j].digest[:]) < 0
	})
	return out
}

func encode(records []record) []byte {
	var buf bytes.Buffer
	buf.Write(setMagic)
	buf.Write(binary.AppendUvarint(nil, uint64(len(records))))
	for _, r := range records {
		buf.Write(binary.AppendUvarint(nil, uint64(len(r.body))))
		buf.Write(r.body)
	}
	return buf.Bytes()
}

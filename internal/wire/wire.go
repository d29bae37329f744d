// Package wire frames entries kept by in-process byte stores. Remote stores
// have native shapes; a byte store only has []byte, so the shape travels in
// the header.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const version byte = 1

// Kind is the shape of a framed entry.
type Kind byte

const (
	KindValue Kind = iota + 1
	KindMap
	KindList
	KindSet
	KindSortedSet
	KindBloom
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "sortedset"
	case KindBloom:
		return "bloom"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

var (
	ErrCorrupt    = errors.New("cacheaspect: corrupt entry")
	ErrKeyTooLong = errors.New("cacheaspect: item key longer than 65535 bytes")
	magic4        = [...]byte{'C', 'A', 'S', 'P'}
)

// Item is one member of an entry. Key is the map field (or empty), Score the
// sorted-set score (or zero).
type Item struct {
	Key     string
	Score   float64
	Payload []byte
}

type Entry struct {
	Kind  Kind
	Items []Item
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode layout:
//
//	magic(4) | ver(1) | kind(1) | n(u32 be)
//	keyLen(u16 be) | key(keyLen) | score(f64 bits, u64 be) | vlen(u32 be) | payload(vlen) * n
func Encode(e Entry) ([]byte, error) {
	total := 4 + 1 + 1 + 4
	for _, it := range e.Items {
		if len(it.Key) > math.MaxUint16 {
			return nil, ErrKeyTooLong
		}
		total += 2 + len(it.Key) + 8 + 4 + len(it.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(e.Kind))

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Items)))
	buf.Write(u4[:])

	for _, it := range e.Items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.Key)))
		buf.Write(u2[:])
		buf.WriteString(it.Key)

		binary.BigEndian.PutUint64(u8[:], math.Float64bits(it.Score))
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Payload)))
		buf.Write(u4[:])
		buf.Write(it.Payload)
	}
	return buf.Bytes(), nil
}

// Decode parses an entry produced by Encode. Payloads alias b.
func Decode(b []byte) (Entry, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := Kind(b[5])
	if kind < KindValue || kind > KindBloom {
		return Entry{}, ErrCorrupt
	}

	off := 6
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4

	// each item needs at least 14 bytes; don't trust n for preallocation
	capHint := n
	if maxItems := (len(b) - off) / 14; capHint > maxItems {
		capHint = maxItems
	}
	items := make([]Item, 0, capHint)

	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return Entry{}, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen > len(b)-off {
			return Entry{}, ErrCorrupt
		}
		key := string(b[off : off+klen])
		off += klen

		if off+8 > len(b) {
			return Entry{}, ErrCorrupt
		}
		score := math.Float64frombits(binary.BigEndian.Uint64(b[off : off+8]))
		off += 8

		if off+4 > len(b) {
			return Entry{}, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off {
			return Entry{}, ErrCorrupt
		}
		payload := b[off : off+vlen]
		off += vlen

		items = append(items, Item{Key: key, Score: score, Payload: payload})
	}
	if off != len(b) {
		return Entry{}, ErrCorrupt
	}
	return Entry{Kind: kind, Items: items}, nil
}

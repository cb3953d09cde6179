package hashring

import (
	"fmt"
	"hash/crc32"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Hasher maps an arbitrary byte string to a ring position.
// Implementations must be deterministic: the same input always
// produces the same output.
type Hasher interface {
	Sum64(data []byte) uint64
}

// Supported hash algorithm names.
const (
	AlgMurmur3 = "murmur3"
	AlgXXHash  = "xxhash"
	AlgFNV1a   = "fnv1a"
	AlgCRC32   = "crc32"
	AlgDJB2    = "djb2"
)

// NewHasher returns the hasher registered under the given name.
// The set of algorithms is closed; unknown names are rejected so a
// misconfigured ring fails at construction, not at lookup time.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case AlgMurmur3, "":
		return murmurHasher{}, nil
	case AlgXXHash:
		return xxHasher{}, nil
	case AlgFNV1a:
		return fnvHasher{}, nil
	case AlgCRC32:
		return crcHasher{}, nil
	case AlgDJB2:
		return djb2Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}
}

type murmurHasher struct{}

func (murmurHasher) Sum64(data []byte) uint64 {
	return murmur3.Sum64(data)
}

type xxHasher struct{}

func (xxHasher) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

type fnvHasher struct{}

func (fnvHasher) Sum64(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

type crcHasher struct{}

func (crcHasher) Sum64(data []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(data))
}

// djb2Hasher implements the classic DJB2 string hash, truncated to
// 32 bits. Kept for compatibility with deployments that picked it
// before murmur3 became the default.
type djb2Hasher struct{}

func (djb2Hasher) Sum64(data []byte) uint64 {
	var h uint64 = 5381
	for _, c := range data {
		h = ((h << 5) + h + uint64(c)) & 0xFFFFFFFF
	}
	return h
}

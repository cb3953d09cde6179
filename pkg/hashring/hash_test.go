package hashring

import "testing"

func TestNewHasher(t *testing.T) {
	for _, name := range []string{AlgMurmur3, AlgXXHash, AlgFNV1a, AlgCRC32, AlgDJB2} {
		h, err := NewHasher(name)
		if err != nil {
			t.Fatalf("NewHasher(%s) failed: %v", name, err)
		}
		a := h.Sum64([]byte("some-key"))
		b := h.Sum64([]byte("some-key"))
		if a != b {
			t.Errorf("%s is not deterministic: %d vs %d", name, a, b)
		}
		if h.Sum64([]byte("some-key")) == h.Sum64([]byte("other-key")) {
			t.Errorf("%s maps distinct keys to the same value", name)
		}
	}
}

func TestNewHasher_Unknown(t *testing.T) {
	if _, err := NewHasher("md6"); err == nil {
		t.Errorf("Expected error for unknown algorithm")
	}
}

func TestNewHasher_DefaultsToMurmur3(t *testing.T) {
	def, err := NewHasher("")
	if err != nil {
		t.Fatalf("NewHasher(\"\") failed: %v", err)
	}
	m, _ := NewHasher(AlgMurmur3)
	if def.Sum64([]byte("key")) != m.Sum64([]byte("key")) {
		t.Errorf("Empty algorithm name should default to murmur3")
	}
}

package crypto

import (
	"strings"
	"testing"
)

func TestRandomSeed(t *testing.T) {
	a, err := RandomSeed()
	if err != nil {
		t.Fatal(err)
	}
	b, err := RandomSeed()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 43 {
		t.Errorf("expected 43 characters for 256 bits, got %d", len(a))
	}
	if a == b {
		t.Errorf("expected distinct seeds, got %q twice", a)
	}
}

func TestRandomBitsShortRead(t *testing.T) {
	orig := Reader
	defer func() { Reader = orig }()

	Reader = strings.NewReader("short")
	if _, err := RandomBits(32); err == nil {
		t.Fatal("expected error on short read")
	}
}

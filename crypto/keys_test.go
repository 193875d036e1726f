package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(TwinePrefix)+"1") {
		t.Fatalf("encoded address %q missing prefix", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip changed address bytes")
	}
	if decoded.Prefix() != TwinePrefix {
		t.Fatalf("expected prefix %q, got %q", TwinePrefix, decoded.Prefix())
	}
	if decoded.Array() != addr.Array() {
		t.Fatalf("array form mismatch")
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatalf("expected error for invalid bech32")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatalf("expected error for empty string")
	}
	zero := NewAddress(TwinePrefix, make([]byte, 20)).String()
	if _, err := DecodeAddress(zero); err != nil {
		t.Fatalf("well-formed address must decode: %v", err)
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if restored.PubKey().Address().String() != key.PubKey().Address().String() {
		t.Fatalf("restored key derives a different address")
	}
	if _, err := PrivateKeyFromBytes([]byte{0x01}); err == nil {
		t.Fatalf("expected error for truncated key bytes")
	}
}

package crypto

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestKeccak256KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  common.Hash
	}{
		{
			name:  "empty",
			input: nil,
			want:  common.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		},
		{
			name:  "abc",
			input: []byte("abc"),
			want:  common.HexToHash("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"),
		},
	}

	for _, tt := range tests {
		got := Keccak256Hash(tt.input)
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got.Hex(), tt.want.Hex())
		}
	}
}

func TestKeccak256CombineEqualsConcat(t *testing.T) {
	a := []byte{0x01, 0x02, 0x03}
	b := []byte{0x04, 0x05}
	c := []byte{}

	combined := Keccak256(a, b, c)
	concat := Keccak256(append(append(append([]byte{}, a...), b...), c...))

	if !bytes.Equal(combined, concat) {
		t.Errorf("combine %x != concat %x", combined, concat)
	}
}

func TestKeccakHasherMatchesKeccak256(t *testing.T) {
	var h Hasher = KeccakHasher{}

	left := []byte{0xaa, 0xbb}
	right := []byte{0xcc}

	if got, want := h.Hash(left, right), Keccak256Hash(left, right); got != want {
		t.Errorf("hasher digest %s, want %s", got.Hex(), want.Hex())
	}
}

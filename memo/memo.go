// Package memo encodes free-text payment references into the fixed 32-byte
// on-chain memo field used by TIP-20 memo-bearing transfers.
//
// Text of up to 31 bytes is stored inline, left-aligned and zero-padded, so
// short references stay readable off the chain. Longer text, and text
// containing a NUL byte (which the padding could not represent unambiguously),
// is replaced by its keccak256 digest. The two forms are indistinguishable
// on-chain, so a hashed memo is an opaque reference: it can only be checked
// by recomputing the hash from an out-of-band original, never decoded.
package memo

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// InlineWidth is the maximum byte length of text stored inline. The final
// byte of the field stays zero, terminating the inline form.
const InlineWidth = 31

// Encode converts memo text into the fixed 32-byte field. It is pure and
// injective: equal inputs always produce equal outputs, and distinct inputs
// produce distinct fields up to keccak256 collision resistance. NUL bytes
// in the text would be indistinguishable from padding, so any text
// containing one takes the hash path regardless of length.
func Encode(text string) common.Hash {
	if !Inline(text) {
		return crypto.Keccak256Hash([]byte(text))
	}

	var field common.Hash
	copy(field[:], text)
	return field
}

// Inline reports whether the text takes the inline form: at most
// InlineWidth bytes with no NUL byte.
func Inline(text string) bool {
	return len(text) <= InlineWidth && !strings.ContainsRune(text, 0)
}

// Decode recovers inline memo text from a field. It returns false for
// fields that do not parse as an inline memo, including every hashed memo
// whose digest happens to use the final byte.
func Decode(field common.Hash) (string, bool) {
	if field[31] != 0 {
		return "", false
	}

	end := 32
	for end > 0 && field[end-1] == 0 {
		end--
	}
	return string(field[:end]), true
}

// Verify reports whether the field is the encoding of the given text. This
// is the only supported way to resolve a hashed memo: the original travels
// out-of-band and the hash is recomputed here.
func Verify(text string, field common.Hash) bool {
	return Encode(text) == field
}

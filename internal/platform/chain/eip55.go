package chain

import (
	"fmt"
	"strings"

	"github.com/zengarden/zengarden-api/internal/minting"
	"golang.org/x/crypto/sha3"
)

// ChecksumAddress normalizes an EVM address to its EIP-55 mixed-case
// checksum form. The relay rejects addresses whose checksum does not
// verify, so recipients are normalized before every mint request.
func ChecksumAddress(address string) (string, error) {
	addr := strings.TrimPrefix(strings.TrimSpace(address), "0x")
	if len(addr) != 40 {
		return "", fmt.Errorf("%w: expected 40 hex characters, got %d", minting.ErrInvalidRecipient, len(addr))
	}

	lower := strings.ToLower(addr)
	for _, c := range lower {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: non-hex character %q", minting.ErrInvalidRecipient, c)
		}
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hash.Sum(nil)

	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}

	return "0x" + string(out), nil
}

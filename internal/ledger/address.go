package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// EvmAddress renders the numeric entity component of a shard.realm.number
// identifier as a 40-hex-digit, zero-left-padded, lowercase string with a
// 0x prefix. The contract layer rejects any deviation from this encoding.
func EvmAddress(id string) (string, error) {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed ledger id %q", id)
	}

	num, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed ledger id %q: %w", id, err)
	}

	return fmt.Sprintf("0x%040x", num), nil
}

package events

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
)

func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func keyString(key solana.PublicKey) string {
	if key.IsZero() {
		return ""
	}
	return key.String()
}

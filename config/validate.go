package config

import (
	"fmt"

	"trader/crypto"
	"trader/native/escrow"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, err := crypto.ParseAddress(c.EscrowProgramID); err != nil {
		return fmt.Errorf("EscrowProgramID: %w", err)
	}
	if _, err := crypto.ParseAddress(c.FeeBeneficiary); err != nil {
		return fmt.Errorf("FeeBeneficiary: %w", err)
	}
	if c.FeeBps > escrow.MaxFeeBps {
		return fmt.Errorf("FeeBps: %d exceeds %d", c.FeeBps, escrow.MaxFeeBps)
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionThreshold <= 0 {
		return fmt.Errorf("rent: lamports per byte-year and exemption threshold must be positive")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: negative values")
	}
	if c.LogMaxSizeMB < 0 {
		return fmt.Errorf("LogMaxSizeMB: negative")
	}
	return nil
}

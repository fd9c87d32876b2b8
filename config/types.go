package config

import "trader/core/runtime"

// Rent mirrors runtime.Rent.
type Rent struct {
	LamportsPerByteYear uint64  `toml:"LamportsPerByteYear"`
	ExemptionThreshold  float64 `toml:"ExemptionThreshold"`
}

func defaultRent() Rent {
	r := runtime.DefaultRent()
	return Rent{LamportsPerByteYear: r.LamportsPerByteYear, ExemptionThreshold: r.ExemptionThreshold}
}

// RateLimit defines the per client RPC budget. TrustProxyHeaders keys clients
// on X-Real-IP / X-Forwarded-For and should only be set when traderd sits
// behind a proxy that overwrites them.
type RateLimit struct {
	RequestsPerMinute int  `toml:"RequestsPerMinute"`
	Burst             int  `toml:"Burst"`
	TrustProxyHeaders bool `toml:"TrustProxyHeaders"`
}

func defaultRateLimit() RateLimit {
	return RateLimit{RequestsPerMinute: 600, Burst: 50}
}

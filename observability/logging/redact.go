package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces secret material in log lines.
const RedactedValue = "[REDACTED]"

// secretKeys are masked wherever they appear, including attributes logged
// without MaskField.
var secretKeys = map[string]struct{}{
	"keypair":       {},
	"keypair_path":  {},
	"private_key":   {},
	"auth_token":    {},
	"authorization": {},
	"rpc_token":     {},
}

// publicKeys name ledger identifiers and request metadata that are safe to
// log verbatim: account and program addresses are public on the ledger.
var publicKeys = map[string]struct{}{
	"service":         {},
	"env":             {},
	"message":         {},
	"severity":        {},
	"timestamp":       {},
	"error":           {},
	"reason":          {},
	"code":            {},
	"address":         {},
	"signature":       {},
	"escrow_program":  {},
	"fee_beneficiary": {},
	"record":          {},
	"custodian":       {},
	"trade_mint":      {},
	"maker":           {},
	"taker":           {},
	"method":          {},
	"client":          {},
	"request_id":      {},
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsSecret reports whether values logged under key must always be masked.
func IsSecret(key string) bool {
	_, ok := secretKeys[normaliseKey(key)]
	return ok
}

// IsPublic reports whether values logged under key may pass through MaskField.
func IsPublic(key string) bool {
	_, ok := publicKeys[normaliseKey(key)]
	return ok
}

// MaskValue returns the placeholder for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField keeps value only for public keys. Anything unknown is masked, so
// new fields carrying file paths or tokens stay out of logs until listed.
func MaskField(key, value string) slog.Attr {
	if IsPublic(key) && !IsSecret(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

func redactSecret(attr slog.Attr) slog.Attr {
	if !IsSecret(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString {
		return slog.String(attr.Key, MaskValue(attr.Value.String()))
	}
	return slog.String(attr.Key, RedactedValue)
}

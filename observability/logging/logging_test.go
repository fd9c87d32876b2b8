package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestSetupEmitsRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions("traderd", "test", Options{Output: &buf})
	logger.Info("hello", MaskField("keypair", "/secret/id.json"), MaskField("signature", "abc"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for key, want := range map[string]string{
		"message":   "hello",
		"severity":  "INFO",
		"service":   "traderd",
		"env":       "test",
		"keypair":   RedactedValue,
		"signature": "abc",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("key %s: got %q want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("expected timestamp key")
	}
}

func TestSetupMasksSecretsLoggedDirectly(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions("trader-cli", "", Options{Output: &buf})
	logger.Info("loaded",
		slog.String("keypair_path", "/home/op/.config/trader/id.json"),
		slog.String("Auth_Token", "hunter2"),
		slog.Any("private_key", []byte{1, 2, 3}),
		slog.String("address", "8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for _, key := range []string{"keypair_path", "Auth_Token", "private_key"} {
		if got := line[key]; got != RedactedValue {
			t.Fatalf("%s leaked: %v", key, got)
		}
	}
	if got := line["address"]; got != "8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX" {
		t.Fatalf("address masked: %v", got)
	}
	if bytes.Contains(buf.Bytes(), []byte("hunter2")) || bytes.Contains(buf.Bytes(), []byte("id.json")) {
		t.Fatalf("secret material in output: %s", buf.String())
	}
}

func TestMaskField(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{"keypair_path", "/tmp/id.json", RedactedValue},
		{"auth_token", "secret", RedactedValue},
		{"auth_token", "", ""},
		{"record", "8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX", "8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX"},
		{" Request_ID ", "abc-123", "abc-123"},
		{"config_path", "/etc/trader/config.toml", RedactedValue},
	}
	for _, tc := range cases {
		if got := MaskField(tc.key, tc.value).Value.String(); got != tc.want {
			t.Fatalf("MaskField(%q, %q) = %q, want %q", tc.key, tc.value, got, tc.want)
		}
	}
	for key := range secretKeys {
		if IsPublic(key) {
			t.Fatalf("%s is both secret and public", key)
		}
	}
}

func TestSetupHonoursLevelAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "node.log")
	logger := SetupWithOptions("traderd", "", Options{Output: &buf, Level: slog.LevelWarn, File: file})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered at warn level: %s", buf.String())
	}
	logger.Warn("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

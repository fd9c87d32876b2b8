package common

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
)

func TestReaderWriterRoundTrip(t *testing.T) {
	key := solana.NewWallet().PublicKey()
	raw := NewWriter().U8(3).U32(70000).U64(1 << 40).Bool(true).Key(key).Pad(2).Bytes()
	if len(raw) != 1+4+8+1+32+2 {
		t.Fatalf("unexpected length %d", len(raw))
	}
	r := NewReader(raw)
	if r.U8() != 3 || r.U32() != 70000 || r.U64() != 1<<40 || !r.Bool() || r.Key() != key {
		t.Fatalf("decoded fields do not match")
	}
	r.Skip(2)
	if err := r.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestReaderErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.U64()
	if err := r.Finish(); !errors.Is(err, trerrors.ErrInvalidInstructionData) {
		t.Fatalf("expected invalid instruction data, got %v", err)
	}

	r = NewReader([]byte{2})
	_ = r.Bool()
	if err := r.Err(); !errors.Is(err, trerrors.ErrInvalidInstructionData) {
		t.Fatalf("expected bool rejection, got %v", err)
	}

	r = NewReader([]byte{1, 0})
	_ = r.U8()
	if err := r.Finish(); !errors.Is(err, trerrors.ErrInvalidInstructionData) {
		t.Fatalf("expected trailing byte rejection, got %v", err)
	}
}

func TestPauseSet(t *testing.T) {
	set := NewPauseSet(" Escrow ", "")
	if err := Guard(set, "escrow"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected escrow paused, got %v", err)
	}
	if err := Guard(set, "token"); err != nil {
		t.Fatalf("token should not be paused: %v", err)
	}
	if err := Guard(nil, "escrow"); err != nil {
		t.Fatalf("nil view never pauses: %v", err)
	}
}

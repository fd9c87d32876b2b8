package common

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
)

// Reader decodes fixed width little-endian fields. The first failure sticks
// and is reported by Err or Finish as InvalidInstructionData.
type Reader struct {
	dec *bin.Decoder
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{dec: bin.NewBorshDecoder(data)}
}

func (r *Reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = fmt.Errorf("%w: %v", trerrors.ErrInvalidInstructionData, err)
	}
}

func (r *Reader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.fail(err)
	return v
}

func (r *Reader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.fail(err)
	return v
}

func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.fail(err)
	return v
}

// Bool accepts only 0 and 1.
func (r *Reader) Bool() bool {
	v := r.U8()
	if v > 1 {
		r.fail(fmt.Errorf("invalid bool %d", v))
	}
	return v == 1
}

func (r *Reader) Key() solana.PublicKey {
	var key solana.PublicKey
	if r.err != nil {
		return key
	}
	raw, err := r.dec.ReadNBytes(len(key))
	r.fail(err)
	copy(key[:], raw)
	return key
}

// Skip discards n bytes of padding.
func (r *Reader) Skip(n int) {
	if r.err != nil {
		return
	}
	_, err := r.dec.ReadNBytes(n)
	r.fail(err)
}

func (r *Reader) Err() error { return r.err }

// Finish returns the sticky error, or InvalidInstructionData when bytes
// remain unread.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if rem := r.dec.Remaining(); rem != 0 {
		return fmt.Errorf("%w: %d trailing bytes", trerrors.ErrInvalidInstructionData, rem)
	}
	return nil
}

// Writer is the encoding counterpart of Reader. Writes to the in-memory
// buffer cannot fail.
type Writer struct {
	buf bytes.Buffer
	enc *bin.Encoder
}

func NewWriter() *Writer {
	w := &Writer{}
	w.enc = bin.NewBorshEncoder(&w.buf)
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	_ = w.enc.WriteUint8(v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	_ = w.enc.WriteUint32(v, binary.LittleEndian)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	_ = w.enc.WriteUint64(v, binary.LittleEndian)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	_ = w.enc.WriteBool(v)
	return w
}

func (w *Writer) Key(k solana.PublicKey) *Writer {
	_ = w.enc.WriteBytes(k[:], false)
	return w
}

// Pad appends n zero bytes.
func (w *Writer) Pad(n int) *Writer {
	_ = w.enc.WriteBytes(make([]byte, n), false)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

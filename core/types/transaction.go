package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	maxTxInstructions = 64
	maxTxAccounts     = 256
	maxTxDataLen      = 10 * 1024
	signatureLen      = 64
	publicKeyLen      = 32
)

var (
	ErrMissingSigner     = errors.New("transaction: missing key for required signer")
	ErrSignatureMismatch = errors.New("transaction: signature count does not match signers")
	ErrInvalidSignature  = errors.New("transaction: invalid signature")
	ErrMalformed         = errors.New("transaction: malformed encoding")
)

// Message is the signed portion of a transaction. Signers lists, in order,
// every key that must provide a signature; it is derived from the instruction
// account metas by NewTransaction.
type Message struct {
	Signers      []solana.PublicKey
	Nonce        uint64
	Instructions []Instruction
}

// Transaction is a message plus one ed25519 signature per message signer.
type Transaction struct {
	Message    Message
	Signatures []solana.Signature
}

// NewTransaction assembles an unsigned transaction. The nonce only serves to
// make otherwise identical messages produce distinct signatures.
func NewTransaction(instructions []Instruction, nonce uint64) *Transaction {
	return newTransaction(nil, instructions, nonce)
}

// NewPaidTransaction is NewTransaction with payer as the first signer, so the
// payer's signature identifies the transaction even when no instruction
// requires it.
func NewPaidTransaction(payer solana.PublicKey, instructions []Instruction, nonce uint64) *Transaction {
	return newTransaction([]solana.PublicKey{payer}, instructions, nonce)
}

func newTransaction(leading []solana.PublicKey, instructions []Instruction, nonce uint64) *Transaction {
	seen := make(map[solana.PublicKey]struct{})
	signers := make([]solana.PublicKey, 0, len(leading))
	for _, key := range leading {
		seen[key] = struct{}{}
		signers = append(signers, key)
	}
	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			signers = append(signers, meta.PublicKey)
		}
	}
	copied := make([]Instruction, len(instructions))
	for i, ix := range instructions {
		copied[i] = NewInstruction(ix.ProgramID, ix.Accounts, ix.Data)
	}
	return &Transaction{Message: Message{Signers: signers, Nonce: nonce, Instructions: copied}}
}

// MarshalBinary encodes the message deterministically. These are the bytes
// covered by the signatures.
func (m Message) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint32(uint32(len(m.Signers)), binary.LittleEndian); err != nil {
		return nil, err
	}
	for _, key := range m.Signers {
		if err := enc.WriteBytes(key[:], false); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint64(m.Nonce, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(m.Instructions)), binary.LittleEndian); err != nil {
		return nil, err
	}
	for _, ix := range m.Instructions {
		if err := enc.WriteBytes(ix.ProgramID[:], false); err != nil {
			return nil, err
		}
		if err := enc.WriteUint32(uint32(len(ix.Accounts)), binary.LittleEndian); err != nil {
			return nil, err
		}
		for _, meta := range ix.Accounts {
			if err := enc.WriteBytes(meta.PublicKey[:], false); err != nil {
				return nil, err
			}
			var flags uint8
			if meta.IsSigner {
				flags |= 1
			}
			if meta.IsWritable {
				flags |= 2
			}
			if err := enc.WriteUint8(flags); err != nil {
				return nil, err
			}
		}
		if err := enc.WriteUint32(uint32(len(ix.Data)), binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteBytes(ix.Data, false); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	var key solana.PublicKey
	raw, err := dec.ReadNBytes(publicKeyLen)
	if err != nil {
		return key, err
	}
	copy(key[:], raw)
	return key, nil
}

func readCount(dec *bin.Decoder, limit int) (int, error) {
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return 0, err
	}
	if int(n) > limit || int(n) > dec.Remaining() {
		return 0, fmt.Errorf("%w: count %d exceeds limit", ErrMalformed, n)
	}
	return int(n), nil
}

func decodeMessage(dec *bin.Decoder) (Message, error) {
	var msg Message
	count, err := readCount(dec, maxTxAccounts)
	if err != nil {
		return msg, err
	}
	msg.Signers = make([]solana.PublicKey, 0, count)
	for i := 0; i < count; i++ {
		key, err := readKey(dec)
		if err != nil {
			return msg, err
		}
		msg.Signers = append(msg.Signers, key)
	}
	if msg.Nonce, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return msg, err
	}
	ixCount, err := readCount(dec, maxTxInstructions)
	if err != nil {
		return msg, err
	}
	msg.Instructions = make([]Instruction, 0, ixCount)
	for i := 0; i < ixCount; i++ {
		var ix Instruction
		if ix.ProgramID, err = readKey(dec); err != nil {
			return msg, err
		}
		metaCount, err := readCount(dec, maxTxAccounts)
		if err != nil {
			return msg, err
		}
		ix.Accounts = make([]AccountMeta, 0, metaCount)
		for j := 0; j < metaCount; j++ {
			key, err := readKey(dec)
			if err != nil {
				return msg, err
			}
			flags, err := dec.ReadUint8()
			if err != nil {
				return msg, err
			}
			ix.Accounts = append(ix.Accounts, AccountMeta{PublicKey: key, IsSigner: flags&1 != 0, IsWritable: flags&2 != 0})
		}
		dataLen, err := readCount(dec, maxTxDataLen)
		if err != nil {
			return msg, err
		}
		if ix.Data, err = dec.ReadNBytes(dataLen); err != nil {
			return msg, err
		}
		ix.Data = append([]byte(nil), ix.Data...)
		msg.Instructions = append(msg.Instructions, ix)
	}
	return msg, nil
}

// Hash returns the keccak256 digest of the encoded message.
func (m Message) Hash() (common.Hash, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return ethcrypto.Keccak256Hash(raw), nil
}

// Sign attaches one signature per message signer using the supplied keys.
// Every signer must be covered.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	raw, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	byKey := make(map[solana.PublicKey]solana.PrivateKey, len(keys))
	for _, key := range keys {
		byKey[key.PublicKey()] = key
	}
	sigs := make([]solana.Signature, len(tx.Message.Signers))
	for i, signer := range tx.Message.Signers {
		key, ok := byKey[signer]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, signer)
		}
		sig, err := key.Sign(raw)
		if err != nil {
			return err
		}
		sigs[i] = sig
	}
	tx.Signatures = sigs
	return nil
}

// VerifySignatures checks every signature against its signer and returns the
// set of verified keys.
func (tx *Transaction) VerifySignatures() (map[solana.PublicKey]bool, error) {
	if len(tx.Signatures) != len(tx.Message.Signers) {
		return nil, ErrSignatureMismatch
	}
	raw, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}
	verified := make(map[solana.PublicKey]bool, len(tx.Signatures))
	for i, signer := range tx.Message.Signers {
		if !tx.Signatures[i].Verify(signer, raw) {
			return nil, fmt.Errorf("%w: signer %s", ErrInvalidSignature, signer)
		}
		verified[signer] = true
	}
	return verified, nil
}

// ID returns the first signature, which identifies the transaction.
func (tx *Transaction) ID() solana.Signature {
	if tx == nil || len(tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return tx.Signatures[0]
}

// MarshalBinary encodes signatures followed by the message.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint32(uint32(len(tx.Signatures)), binary.LittleEndian); err != nil {
		return nil, err
	}
	for _, sig := range tx.Signatures {
		if err := enc.WriteBytes(sig[:], false); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes(msg, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a transaction produced by MarshalBinary.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	dec := bin.NewBorshDecoder(data)
	count, err := readCount(dec, maxTxAccounts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sigs := make([]solana.Signature, 0, count)
	for i := 0; i < count; i++ {
		raw, err := dec.ReadNBytes(signatureLen)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		var sig solana.Signature
		copy(sig[:], raw)
		sigs = append(sigs, sig)
	}
	msg, err := decodeMessage(dec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, dec.Remaining())
	}
	tx.Signatures = sigs
	tx.Message = msg
	return nil
}

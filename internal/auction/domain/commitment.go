package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Identity is a party of the auction (seller or bidder)
type Identity = uuid.UUID

// Digest is a 256-bit commitment hash
type Digest [32]byte

// Nonce is the bidder's secret salt
type Nonce [32]byte

// CommitmentScheme selects the digest used to build and verify commitments
type CommitmentScheme string

const (
	SchemeSHA256    CommitmentScheme = "sha256"
	SchemeKeccak256 CommitmentScheme = "keccak256"
)

// ParseCommitmentScheme validates a configured scheme name
func ParseCommitmentScheme(s string) (CommitmentScheme, error) {
	switch CommitmentScheme(s) {
	case SchemeSHA256, SchemeKeccak256:
		return CommitmentScheme(s), nil
	}
	return "", fmt.Errorf("%w: unknown commitment scheme %q", ErrInvalidRules, s)
}

func (s CommitmentScheme) newHash() hash.Hash {
	if s == SchemeKeccak256 {
		return sha3.NewLegacyKeccak256()
	}
	return sha256.New()
}

// ComputeCommitment hashes amount (8 bytes little endian) || nonce || bidder (16 bytes).
// Binding the bidder stops a commitment observed from one bidder being replayed by another.
func ComputeCommitment(scheme CommitmentScheme, amount Amount, nonce Nonce, bidder Identity) Digest {
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], uint64(amount))

	h := scheme.newHash()
	h.Write(amt[:])
	h.Write(nonce[:])
	h.Write(bidder[:])

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// VerifyCommitment reports whether (amount, nonce, bidder) reproduces commitment
func VerifyCommitment(scheme CommitmentScheme, commitment Digest, amount Amount, nonce Nonce, bidder Identity) bool {
	computed := ComputeCommitment(scheme, amount, nonce, bidder)
	return subtle.ConstantTimeCompare(computed[:], commitment[:]) == 1
}

// NewNonce draws a random nonce
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return Nonce{}, fmt.Errorf("generating nonce: %w", err)
	}
	return n, nil
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func (n Nonce) String() string { return hex.EncodeToString(n[:]) }

// ParseDigest decodes a 64 char hex string, with or without 0x prefix
func ParseDigest(s string) (Digest, error) {
	var d Digest
	err := decodeHex32(s, d[:])
	return d, err
}

// ParseNonce decodes a 64 char hex string, with or without 0x prefix
func ParseNonce(s string) (Nonce, error) {
	var n Nonce
	err := decodeHex32(s, n[:])
	return n, err
}

func decodeHex32(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHexLength, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHexLength, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Digest) UnmarshalText(text []byte) error {
	v, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (n Nonce) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Nonce) UnmarshalText(text []byte) error {
	v, err := ParseNonce(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

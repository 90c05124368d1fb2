// Package model defines the shared data shapes for the bulk indexer and live
// listener: block locators, checkpoints, work ranges and header records.
package model

import (
	"encoding/hex"
	"fmt"
)

// BlockLocator is an exponentially-thinning list of ancestor hashes, newest
// first, ending at genesis. Comparing two locators against a chain yields the
// highest common ancestor cheaply (see headerchain.FindFork).
type BlockLocator []Hash

// Hash is a 32-byte block hash in the chain's native byte order.
type Hash [32]byte

// String renders the hash as big-endian hex, matching how block explorers and
// the Bitcoin wire protocol display hashes.
func (h Hash) String() string {
	reversed := make([]byte, len(h))
	for i := range h {
		reversed[i] = h[len(h)-1-i]
	}
	return hex.EncodeToString(reversed)
}

// IsZero reports whether h is the all-zero hash (used as a "no value" sentinel).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Encode serializes the locator as a length-prefixed sequence of 32-byte
// hashes, hex-encoded — the format stored in the checkpoint lock blob.
func (l BlockLocator) Encode() string {
	buf := make([]byte, 0, 4+len(l)*32)
	var lenBytes [4]byte
	putUint32(lenBytes[:], uint32(len(l)))
	buf = append(buf, lenBytes[:]...)
	for _, h := range l {
		buf = append(buf, h[:]...)
	}
	return hex.EncodeToString(buf)
}

// DecodeLocator parses the format produced by BlockLocator.Encode.
func DecodeLocator(s string) (BlockLocator, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode locator hex: %w", err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("locator too short: %d bytes", len(raw))
	}
	count := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	raw = raw[4:]
	if uint64(len(raw)) != uint64(count)*32 {
		return nil, fmt.Errorf("locator length mismatch: header says %d hashes, got %d bytes", count, len(raw))
	}

	locator := make(BlockLocator, count)
	for i := range locator {
		copy(locator[i][:], raw[i*32:(i+1)*32])
	}
	return locator, nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

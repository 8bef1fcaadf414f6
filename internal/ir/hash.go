package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "fixpoint/record/v1"
	DomainTypeID = "fixpoint/typeid/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// RecordID computes the content-addressed ID of an evaluation record.
// The ID is stable across restarts and replays given the same inputs,
// which is what makes trace writes idempotent.
func RecordID(sessionToken, intrinsic string, args Obj, seq int64) (string, error) {
	obj := Obj{
		"session_token": Str(sessionToken),
		"intrinsic":     Str(intrinsic),
		"args":          args,
		"seq":           Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	sum := hashWithDomain(DomainRecord, canonical)
	return hex.EncodeToString(sum[:]), nil
}

// TypeID computes the 128-bit type identity hash the type_id intrinsic
// returns. It is derived from the NFC-normalized canonical encoding of the
// type path, so equal paths hash equally across sessions.
func TypeID(typePath string) (Uint128, error) {
	canonical, err := MarshalCanonical(Str(typePath))
	if err != nil {
		return Uint128{}, fmt.Errorf("TypeID: %w", err)
	}
	sum := hashWithDomain(DomainTypeID, canonical)
	return Uint128{
		Hi: binary.LittleEndian.Uint64(sum[8:16]),
		Lo: binary.LittleEndian.Uint64(sum[0:8]),
	}, nil
}

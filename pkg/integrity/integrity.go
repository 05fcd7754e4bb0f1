// Package integrity computes the keyed fingerprints that make ledger rows
// tamper-evident. Both hashes are deterministic SHA-256 digests over a fixed,
// pipe-joined field order; changing any covered column changes the digest.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// TokenFields is the exact set of trust token columns covered by the
// fingerprint. Status is included on purpose: resetting a used token back to
// ACTIVE by writing the store directly invalidates the hash.
type TokenFields struct {
	ID             string
	ProgramID      uint
	CoachID        uint
	AthleteID      uint
	Gross          int64
	Commission     int64
	Net            int64
	RateBps        int64
	Status         string
	IdempotencyKey string
}

// TokenFingerprint returns the hex SHA-256 fingerprint of f keyed with the
// server secret. The secret keeps the hash non-forgeable by anyone who can
// read (or write) the token row but not the server config.
func TokenFingerprint(f TokenFields, secret string) string {
	raw := fmt.Sprintf("%s|%d|%d|%d|%d|%d|%d|%d|%s|%s|%s",
		f.ID, f.ProgramID, f.CoachID, f.AthleteID,
		f.Gross, f.Commission, f.Net, f.RateBps,
		f.Status, f.IdempotencyKey, secret)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// EntryFields is the audit entry material covered by the chain hash.
// PreviousHash links the entry to its predecessor, so editing any historical
// entry breaks every later link.
type EntryFields struct {
	ID           string
	Action       string
	ActorType    string
	ActorID      string
	Summary      string
	Gross        *int64
	Commission   *int64
	Net          *int64
	Result       string
	PreviousHash string
}

// EntryHash returns the hex SHA-256 hash of an audit entry.
func EntryHash(f EntryFields) string {
	raw := f.ID + "|" + f.Action + "|" + f.ActorType + "|" + f.ActorID + "|" +
		f.Summary + "|" + amount(f.Gross) + "|" + amount(f.Commission) + "|" +
		amount(f.Net) + "|" + f.Result + "|" + f.PreviousHash
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func amount(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

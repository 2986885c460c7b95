// Package commitment derives the privacy-preserving digest that stands in for
// a credential's sensitive fields on the public ledger.
//
// The digest covers exactly three fields: the subject's name, the subject id,
// and the claim value. They are serialized as canonical JSON (sorted keys,
// missing values as null) before hashing, so independent implementations
// holding the private record recompute the identical commitment offline.
package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fields is the exact field set covered by a commitment. Pointer values let a
// missing field canonicalize to JSON null rather than the empty string.
type Fields struct {
	SubjectName *string
	SubjectID   *string
	ClaimValue  *string
}

// String wraps a value for use as an optional commitment field.
func String(v string) *string {
	return &v
}

// Hash returns the hex SHA-256 commitment for the given fields.
// The result is invariant under caller field ordering because the canonical
// form sorts keys.
func Hash(fields Fields) string {
	canonical := map[string]*string{
		"claim_value":  fields.ClaimValue,
		"subject_id":   fields.SubjectID,
		"subject_name": fields.SubjectName,
	}
	// encoding/json marshals map keys in sorted order, which is the
	// canonical ordering verifiers must reproduce.
	payload, err := json.Marshal(canonical)
	if err != nil {
		// A map of string pointers cannot fail to marshal.
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsDeterministic(t *testing.T) {
	fields := Fields{
		SubjectName: String("John Doe"),
		SubjectID:   String("STU001"),
		ClaimValue:  String("A+"),
	}
	assert.Equal(t, Hash(fields), Hash(fields))
}

func TestHashMatchesCanonicalForm(t *testing.T) {
	// Pin the canonical serialization so cross-implementation verifiers can
	// rely on it: sorted keys, null for missing values, no extra whitespace.
	sum := sha256.Sum256([]byte(`{"claim_value":"A+","subject_id":"STU001","subject_name":null}`))
	got := Hash(Fields{SubjectID: String("STU001"), ClaimValue: String("A+")})
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestHashDistinguishesValues(t *testing.T) {
	base := Fields{SubjectName: String("John Doe"), SubjectID: String("STU001"), ClaimValue: String("A+")}
	changed := base
	changed.ClaimValue = String("A")
	assert.NotEqual(t, Hash(base), Hash(changed))
}

func TestMissingFieldDiffersFromEmpty(t *testing.T) {
	missing := Fields{SubjectID: String("STU001"), ClaimValue: String("A+")}
	empty := Fields{SubjectName: String(""), SubjectID: String("STU001"), ClaimValue: String("A+")}
	assert.NotEqual(t, Hash(missing), Hash(empty))
}

func TestHashLength(t *testing.T) {
	got := Hash(Fields{})
	assert.Len(t, got, 64)
}

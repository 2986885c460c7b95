package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeBlockHash derives a block's header hash from its canonical fields.
// The pipe-delimited form is fixed: index, previous hash, timestamp in unix
// nanoseconds as a decimal, merkle root. Any change breaks verification of
// every block already on a chain.
func ComputeBlockHash(index int64, previousHash string, timestamp int64, merkleRoot string) string {
	header := fmt.Sprintf("%d|%s|%d|%s", index, previousHash, timestamp, merkleRoot)
	sum := sha256.Sum256([]byte(header))
	return hex.EncodeToString(sum[:])
}

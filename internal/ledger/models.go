package ledger

// GenesisPreviousHash is the sentinel previous_hash carried by block 0.
const GenesisPreviousHash = "0"

// Block is one header in the hash chain. Blocks are immutable once appended;
// the only writer is AppendBatch.
type Block struct {
	Index        int64  `json:"index"`
	PreviousHash string `json:"previous_hash"`
	MerkleRoot   string `json:"merkle_root"`
	Hash         string `json:"hash"`
	Timestamp    int64  `json:"timestamp"`
}

// Entry anchors one commitment inside a block's batch. Block fields are
// denormalized so a verifier can serve proof context without a join.
type Entry struct {
	CertificateID  string `json:"certificate_id"`
	CommitmentHash string `json:"commitment_hash"`
	BlockIndex     int64  `json:"block_index"`
	BlockHash      string `json:"block_hash"`
	PreviousHash   string `json:"previous_hash"`
	MerkleRoot     string `json:"merkle_root"`
	Timestamp      int64  `json:"timestamp"`
}

// BatchItem is one commitment queued for the next block.
type BatchItem struct {
	CertificateID  string
	CommitmentHash string
}

// FailureKind classifies the first defect ValidateChain encountered.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureHashMismatch   FailureKind = "hash_mismatch"
	FailureLinkBroken     FailureKind = "link_broken"
	FailureMerkleMismatch FailureKind = "merkle_mismatch"
)

// ChainReport is the outcome of a full chain walk. Validation only ever
// reports; remediation is an operator concern.
type ChainReport struct {
	Valid             bool        `json:"valid"`
	FirstInvalidIndex *int64      `json:"first_invalid_index,omitempty"`
	Failure           FailureKind `json:"failure,omitempty"`
	BlockCount        int64       `json:"block_count"`
	EntryCount        int64       `json:"entry_count"`
}

// Info summarizes chain shape for status endpoints.
type Info struct {
	BlockCount      int64  `json:"block_count"`
	EntryCount      int64  `json:"entry_count"`
	LatestBlockHash string `json:"latest_block_hash"`
}

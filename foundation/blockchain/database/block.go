package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// powBatch is the number of nonce attempts made between checks for a
// cancellation request.
const powBatch = 1_000

// Set of error variables for block validation.
var (
	ErrNegativeBlockID     = errors.New("block id is negative")
	ErrBlockHashMismatch   = errors.New("block hash does not match its contents")
	ErrBlockHashNotSolved  = errors.New("block hash does not satisfy the difficulty")
	ErrTxTimestampOrdering = errors.New("transaction timestamps are not strictly increasing")
)

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	ID           int64  `json:"id"`
	TimeStamp    uint64 `json:"timestamp"`
	Nonce        int64  `json:"nonce"`
	PrevHash     string `json:"prev_hash"`
	Hash         string `json:"hash"`
	Difficulty   int    `json:"difficulty"`
	Transactions []Tx   `json:"transactions"`
}

// PreNonceHash returns the hash of the block's id, previous hash and the
// hashes of its transactions in order. It doesn't depend on the nonce so it
// only needs to be computed once per mining attempt.
func (b Block) PreNonceHash() string {
	txHashes := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		txHashes[i] = tx.ComputeHash()
	}

	data := fmt.Sprintf("%d|%s|%s", b.ID, b.PrevHash, strings.Join(txHashes, "|"))
	return signature.HashString(data)
}

// ComputeHash returns the canonical hash of the block for the specified nonce.
func (b Block) ComputeHash(nonce int64) string {
	return hashWithNonce(b.PreNonceHash(), nonce)
}

// Validate checks the block's id, hash, difficulty and the ordering and
// validity of its transactions.
func (b Block) Validate() error {
	if b.ID < 0 {
		return ErrNegativeBlockID
	}

	if b.Hash != b.ComputeHash(b.Nonce) {
		return ErrBlockHashMismatch
	}

	if !isHashSolved(b.Difficulty, b.Hash) {
		return ErrBlockHashNotSolved
	}

	var current uint64
	for _, tx := range b.Transactions {
		if tx.TimeStamp <= current {
			return ErrTxTimestampOrdering
		}
		current = tx.TimeStamp

		if err := tx.Validate(); err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}
	}

	return nil
}

// IsValid is the boolean form of Validate.
func (b Block) IsValid() bool {
	return b.Validate() == nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlock  *Block
	Difficulty int
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block on top of the previous block and performs the
// work to find a nonce that solves the cryptographic POW puzzle. A nil
// previous block means the new block starts the chain.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	// When mining the first block there is no previous hash.
	var id int64
	var prevHash string
	var prevTimeStamp uint64
	if args.PrevBlock != nil {
		id = args.PrevBlock.ID + 1
		prevHash = args.PrevBlock.Hash
		prevTimeStamp = args.PrevBlock.TimeStamp
	}

	nb := Block{
		ID:           id,
		PrevHash:     prevHash,
		Difficulty:   args.Difficulty,
		Transactions: args.Trans,
	}

	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	// Block timestamps must be strictly increasing along the chain.
	nb.TimeStamp = uint64(time.Now().UTC().Unix())
	if nb.TimeStamp <= prevTimeStamp {
		nb.TimeStamp = prevTimeStamp + 1
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]", b.ID)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.ID)

	for _, tx := range b.Transactions {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	preHash := b.PreNonceHash()

	var nonce int64
	for {
		hash := hashWithNonce(preHash, nonce)
		if isHashSolved(b.Difficulty, hash) {
			b.Nonce = nonce
			b.Hash = hash

			ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PrevHash, hash, nonce+1)
			return nil
		}

		nonce++

		// Check between batches if another node solved the block first.
		if nonce%powBatch == 0 {
			if ctx.Err() != nil {
				ev("database: PerformPOW: MINING: CANCELLED: attempts[%d]", nonce)
				return ctx.Err()
			}
		}
	}
}

// =============================================================================

// hashWithNonce appends the decimal nonce to the pre nonce hash and hashes the
// result.
func hashWithNonce(preHash string, nonce int64) string {
	return signature.HashString(preHash + strconv.FormatInt(nonce, 10))
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need at least a difficulty number of leading 0's.
func isHashSolved(difficulty int, hash string) bool {
	return leadingZeros(hash) >= difficulty
}

// leadingZeros counts the number of leading '0' characters in the hex hash.
func leadingZeros(hash string) int {
	var count int
	for _, c := range hash {
		if c != '0' {
			break
		}
		count++
	}

	return count
}

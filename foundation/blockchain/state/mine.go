package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrChainAdvanced is returned when a block was mined on a tip that was
// replaced while the search was running.
var ErrChainAdvanced = errors.New("chain advanced while mining")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. The search runs without holding the lock.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	s.mu.Lock()
	if s.mempool.Count() == 0 {
		s.mu.Unlock()
		return database.Block{}, ErrNoTransactions
	}
	tip, exists := s.db.LatestBlock()
	trans := s.mempool.PickBest(-1)
	s.mu.Unlock()

	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	var prevBlock *database.Block
	if exists {
		prevBlock = &tip
	}

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		PrevBlock:  prevBlock,
		Difficulty: s.difficulty,
		Trans:      trans,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.commitBlock(tip, exists, block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// commitBlock appends the mined block if the chain still ends with the block
// it was mined on and the block passes the same checks a peer would apply.
// The block's transactions are removed from the mempool.
func (s *State) commitBlock(tip database.Block, hadTip bool, block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.db.LatestBlock()
	if exists != hadTip || current.Hash != tip.Hash {
		s.evHandler("state: commitBlock: MINING: DISCARDED: blk[%d]: tip moved", block.ID)
		return ErrChainAdvanced
	}

	var parent *database.Block
	if exists {
		parent = &current
	}

	if err := database.ValidateSegment(parent, []database.Block{block}); err != nil {
		s.evHandler("state: commitBlock: MINING: REJECTED: blk[%d]: %s", block.ID, err)
		return fmt.Errorf("mined block is invalid: %w", err)
	}

	s.db.Write(block)
	s.mempool.Delete(block.Transactions...)

	s.evHandler("state: commitBlock: MINING: blk[%d]: hash[%s]: removed txs[%d]", block.ID, block.Hash, len(block.Transactions))

	return nil
}

package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Set of errors returned when a peer's chain can't be adopted.
var (
	ErrChainShorter = errors.New("chain does not extend the local chain")
	ErrInvalidChain = errors.New("invalid chain")
)

// UpdateResult is the reply to a request to adopt a chain segment. When the
// segment is not accepted, ChainLength tells the sender where to resend from.
type UpdateResult struct {
	Success     bool   `json:"success"`
	ChainLength uint32 `json:"chain_length"`
	Error       string `json:"error,omitempty"`
}

// UpdateBlockchain resolves a fork by splicing the segment of blocks from a
// peer onto the local chain at the id of the first block. A segment that
// can't be spliced yet is answered with a result asking for earlier blocks.
func (s *State) UpdateBlockchain(blocks []database.Block) (UpdateResult, error) {
	s.evHandler("state: UpdateBlockchain: started: blocks[%d]", len(blocks))
	defer s.evHandler("state: UpdateBlockchain: completed")

	result, err := s.updateBlockchain(blocks)
	if err != nil {
		s.evHandler("state: UpdateBlockchain: REJECTED: %s", err)
		return result, err
	}

	if !result.Success {
		s.evHandler("state: UpdateBlockchain: NOT ACCEPTED: chain-length[%d]", result.ChainLength)
		return result, nil
	}

	s.evHandler("state: UpdateBlockchain: ACCEPTED: chain-length[%d]", result.ChainLength)

	// The tip moved so any search in flight is mining on a stale block.
	s.Worker.SignalCancelMining()
	s.Worker.SignalStartMining()

	return result, nil
}

func (s *State) updateBlockchain(blocks []database.Block) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := int64(s.db.Length())
	notAccepted := UpdateResult{ChainLength: uint32(length)}

	if len(blocks) == 0 {
		return notAccepted, nil
	}

	// The sender needs to start no later than our frontier.
	first := blocks[0]
	if first.ID > length {
		return notAccepted, nil
	}

	// Longest chain wins, never replace a longer chain with a shorter one.
	if last := blocks[len(blocks)-1]; last.ID < length {
		notAccepted.Error = fmt.Sprintf("%s: last[%d] length[%d]", ErrChainShorter, last.ID, length)
		return notAccepted, ErrChainShorter
	}

	if first.ID < 0 {
		return UpdateResult{}, fmt.Errorf("%w: %w", ErrInvalidChain, database.ErrNegativeBlockID)
	}

	var parent *database.Block
	if first.ID > 0 {
		blk, err := s.db.GetBlock(first.ID - 1)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("%w: %w", ErrInvalidChain, err)
		}

		// The segment forks below its first block, ask for the whole chain.
		if first.PrevHash != blk.Hash {
			return UpdateResult{ChainLength: 0}, nil
		}
		parent = &blk
	}

	for _, block := range blocks {
		if block.Difficulty < s.difficulty {
			return UpdateResult{}, fmt.Errorf("%w: blk[%d]: difficulty[%d] below[%d]", ErrInvalidChain, block.ID, block.Difficulty, s.difficulty)
		}
	}

	if err := database.ValidateSegment(parent, blocks); err != nil {
		return UpdateResult{}, fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}

	chain, err := s.db.Splice(int(first.ID), blocks)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}

	s.db.Reset(chain)

	for _, block := range blocks {
		s.mempool.Delete(block.Transactions...)
	}

	return UpdateResult{Success: true, ChainLength: uint32(len(chain))}, nil
}

package database

import (
	"errors"
	"fmt"
)

// Set of error variables for chain validation.
var (
	ErrBlockOutOfOrder     = errors.New("block id does not match its position")
	ErrPrevHashMismatch    = errors.New("previous hash does not match the parent block")
	ErrBlockTimestampOrder = errors.New("block timestamps are not strictly increasing")
)

// ValidateChain checks the full set of blocks link together starting from
// the first block and that every block is individually valid.
func ValidateChain(chain []Block) error {
	return ValidateSegment(nil, chain)
}

// ValidateSegment checks the blocks link together on top of the parent block
// and that every block is individually valid. A nil parent means the segment
// must start the chain.
func ValidateSegment(parent *Block, segment []Block) error {
	var nextID int64
	var prevHash string
	var prevTimeStamp uint64
	if parent != nil {
		nextID = parent.ID + 1
		prevHash = parent.Hash
		prevTimeStamp = parent.TimeStamp
	}

	for _, block := range segment {
		if block.ID != nextID {
			return fmt.Errorf("blk[%d]: %w: got %d", nextID, ErrBlockOutOfOrder, block.ID)
		}

		if block.PrevHash != prevHash {
			return fmt.Errorf("blk[%d]: %w", block.ID, ErrPrevHashMismatch)
		}

		if block.TimeStamp <= prevTimeStamp {
			return fmt.Errorf("blk[%d]: %w", block.ID, ErrBlockTimestampOrder)
		}

		if err := block.Validate(); err != nil {
			return fmt.Errorf("blk[%d]: %w", block.ID, err)
		}

		nextID++
		prevHash = block.Hash
		prevTimeStamp = block.TimeStamp
	}

	return nil
}

// IsValidChain is the boolean form of ValidateChain.
func IsValidChain(chain []Block) bool {
	return ValidateChain(chain) == nil
}

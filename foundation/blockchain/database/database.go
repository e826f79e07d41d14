// Package database handles the transaction and block models, their canonical
// hashing and validation rules, and the in-memory chain of blocks.
package database

import (
	"errors"
	"fmt"
)

// ErrSpliceOutOfRange is returned when a splice would leave a gap in the chain.
var ErrSpliceOutOfRange = errors.New("splice point is beyond the end of the chain")

// Database manages the chain of blocks held by a node. It performs no locking
// of its own, the state package serializes access together with the mempool.
type Database struct {
	blocks []Block
}

// New constructs an empty database.
func New() *Database {
	return &Database{}
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	return len(db.blocks)
}

// LatestBlock returns a copy of the tip of the chain. The boolean is false
// when the chain is empty.
func (db *Database) LatestBlock() (Block, bool) {
	if len(db.blocks) == 0 {
		return Block{}, false
	}

	return db.blocks[len(db.blocks)-1], true
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(id int64) (Block, error) {
	if id < 0 || id >= int64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d not found", id)
	}

	return db.blocks[id], nil
}

// Copy returns a copy of the full chain.
func (db *Database) Copy() []Block {
	return db.CopyFrom(0)
}

// CopyFrom returns a copy of the chain starting at the specified index.
func (db *Database) CopyFrom(from int) []Block {
	if from < 0 {
		from = 0
	}
	if from >= len(db.blocks) {
		return []Block{}
	}

	out := make([]Block, len(db.blocks)-from)
	copy(out, db.blocks[from:])

	return out
}

// Write appends the block to the end of the chain.
func (db *Database) Write(block Block) {
	db.blocks = append(db.blocks, block)
}

// Splice returns the chain that results from dropping every block from the
// index onward and appending the blocks. The database is not modified.
func (db *Database) Splice(from int, blocks []Block) ([]Block, error) {
	if from < 0 || from > len(db.blocks) {
		return nil, ErrSpliceOutOfRange
	}

	out := make([]Block, 0, from+len(blocks))
	out = append(out, db.blocks[:from]...)
	out = append(out, blocks...)

	return out, nil
}

// Reset replaces the whole chain.
func (db *Database) Reset(blocks []Block) {
	db.blocks = make([]Block, len(blocks))
	copy(db.blocks, blocks)
}

// ContainsTx reports whether the transaction is already part of a block.
func (db *Database) ContainsTx(tx Tx) bool {
	for _, block := range db.blocks {
		if ContainsTx(block.Transactions, tx) {
			return true
		}
	}

	return false
}

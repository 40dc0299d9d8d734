package table

import (
	"iter"

	"github.com/dot5enko/paradox-reader/record"
)

// Predicate selects records during enumeration. A nil Predicate accepts
// every record.
type Predicate func(*record.Record) bool

// Cursor walks the records of a table in block order, then record order.
// It owns its position; cursors over the same table are independent.
type Cursor struct {
	table     *Table
	predicate Predicate

	nextBlock int
	block     *record.Block
	next      int

	current *record.Record
	err     error
}

func (t *Table) Cursor(predicate Predicate) *Cursor {
	return &Cursor{table: t, predicate: predicate}
}

// Next advances to the next accepted record. It returns false at the end of
// the table or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}

	for {
		for c.block != nil && c.next < c.block.Len() {
			rec := c.block.Record(c.next)
			c.next++

			if c.predicate == nil || c.predicate(rec) {
				c.current = rec
				return true
			}
		}

		if c.nextBlock >= c.table.store.Len() {
			c.current = nil
			return false
		}

		c.block, c.err = c.table.Block(c.nextBlock)
		if c.err != nil {
			c.current = nil
			return false
		}
		c.nextBlock++
		c.next = 0
	}
}

// Record is the record Next stopped at.
func (c *Cursor) Record() *record.Record {
	return c.current
}

func (c *Cursor) Err() error {
	return c.err
}

// Rows returns a restartable sequence of the records accepted by predicate.
// Every iteration starts a fresh cursor; a block read failure is yielded
// once and ends the sequence.
func (t *Table) Rows(predicate Predicate) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		cursor := t.Cursor(predicate)
		for cursor.Next() {
			if !yield(cursor.Record(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, err)
		}
	}
}

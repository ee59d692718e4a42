// Package cart implements the in-memory shopping cart of one browsing session.
//
// A Cart is owned by a single actor and is not safe for concurrent use.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/catalog"
)

// Line is one (pizza, size) combination in the cart. Name and UnitPrice are
// captured when the line is created so later menu edits do not affect it.
type Line struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Size      catalog.Size    `json:"size"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// IndexOutOfRangeError is returned when a positional operation receives an
// index outside [0, Len). It signals a stale index held by the caller.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("line index %d out of range [0, %d)", e.Index, e.Len)
}

// Cart is an ordered list of lines; insertion order is display order.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// FromLines rebuilds a cart from previously exported lines. Lines with a
// non-positive quantity are dropped and repeated (item, size) pairs are merged.
func FromLines(lines []Line) *Cart {
	c := New()
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.find(l.ItemID, l.Size); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// AddItem adds one unit of itemID in the given size, pricing it from snap.
// If the pair is already in the cart its quantity is incremented; otherwise a
// new line is appended. It reports false, leaving the cart untouched, when
// snap does not quote the item in that size.
func (c *Cart) AddItem(snap *catalog.Snapshot, itemID string, size catalog.Size) bool {
	item, ok := snap.Lookup(itemID)
	if !ok {
		return false
	}
	price, ok := item.Price(size)
	if !ok {
		return false
	}

	if i := c.find(itemID, size); i >= 0 {
		c.lines[i].Quantity++
		return true
	}
	c.lines = append(c.lines, Line{
		ItemID:    itemID,
		Name:      item.Name,
		Size:      size,
		UnitPrice: price,
		Quantity:  1,
	})
	return true
}

// RemoveLine deletes the line at index. Later lines shift down by one.
func (c *Cart) RemoveLine(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// AdjustQuantity adds delta to the quantity of the line at index. A line whose
// quantity drops to zero or below is removed.
func (c *Cart) AdjustQuantity(index, delta int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	q := c.lines[index].Quantity + delta
	if q <= 0 {
		c.lines = append(c.lines[:index], c.lines[index+1:]...)
		return nil
	}
	c.lines[index].Quantity = q
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Units returns the total quantity across all lines.
func (c *Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal returns the unrounded sum of every line subtotal.
func (c *Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.lines)
}

// Subtotal sums UnitPrice × Quantity over lines at full precision.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func (c *Cart) find(itemID string, size catalog.Size) int {
	for i, l := range c.lines {
		if l.ItemID == itemID && l.Size == size {
			return i
		}
	}
	return -1
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.lines) {
		return &IndexOutOfRangeError{Index: index, Len: len(c.lines)}
	}
	return nil
}

package domain

import (
	"errors"
	"sync"

	catalog "github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

var (
	ErrUnknownProduct    = errors.New("product not in catalog")
	ErrOutOfStock        = errors.New("product out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductLookup resolves a product against the current catalog snapshot.
type ProductLookup interface {
	Product(id int64) (catalog.Product, bool)
}

// Line is one cart entry. UnitPrice is captured when the product is first
// added and does not follow later catalog refreshes.
type Line struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart holds the current sale's lines in insertion order, at most one line
// per product. Every mutation either commits fully or leaves the cart
// untouched; quantity never exceeds the catalog's current stock.
type Cart struct {
	mu     sync.Mutex
	lookup ProductLookup
	lines  []Line
}

func New(lookup ProductLookup) *Cart {
	return &Cart{lookup: lookup}
}

// Add puts one unit of the product in the cart, incrementing the existing
// line if present.
func (c *Cart) Add(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.lookup.Product(productID)
	if !ok {
		return ErrUnknownProduct
	}

	if i := c.index(productID); i >= 0 {
		if c.lines[i].Quantity >= p.Stock {
			return ErrInsufficientStock
		}
		c.lines[i].Quantity++
		return nil
	}

	if !p.InStock() {
		return ErrOutOfStock
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
	return nil
}

// UpdateQuantity applies a signed delta. A resulting quantity below one
// removes the line; one above the current stock is rejected.
func (c *Cart) UpdateQuantity(productID int64, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return nil
	}

	newQty := c.lines[i].Quantity + delta
	if newQty < 1 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}

	p, ok := c.lookup.Product(productID)
	if !ok {
		return ErrUnknownProduct
	}
	if newQty > p.Stock {
		return ErrInsufficientStock
	}

	c.lines[i].Quantity = newQty
	return nil
}

func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Subtotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// index must be called with the lock held.
func (c *Cart) index(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

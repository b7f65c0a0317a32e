// Package pricing derives the amounts a sale settles on. All money is in
// minor currency units; only integer arithmetic is used.
package pricing

import (
	cart "github.com/ambatushop/pos-terminal/internal/cart/domain"
	checkout "github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

// Total is the amount due for the cart. Tax and discount hooks would apply
// here; the current scope charges the bare subtotal.
func Total(c *cart.Cart) int64 {
	return c.Subtotal()
}

// Change is the amount returned to the customer, never negative.
func Change(total, tendered int64) int64 {
	if tendered <= total {
		return 0
	}
	return tendered - total
}

// CanComplete is the single authority for enabling checkout: the cart must
// be non-empty, and a cash sale needs enough money tendered.
func CanComplete(c *cart.Cart, method checkout.Method, tendered int64) bool {
	if c.IsEmpty() {
		return false
	}
	if method == checkout.MethodCash {
		return tendered >= Total(c)
	}
	return true
}

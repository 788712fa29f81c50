package cart

import "github.com/viepratiqueservice-arch/Visela/internal/domain/loyalty"

// ProductSnapshot is the product as it was when it entered the cart.
type ProductSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Unit         string `json:"unit"`
	UnitQuantity int    `json:"unit_quantity"`
	Image        string `json:"image,omitempty"`
	Category     string `json:"category"`
	CercleOnly   bool   `json:"cercle_only"`
}

type Line struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// Total is price times quantity for the line.
func (l Line) Total() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Lines keeps cart lines in the order they were first added. Every retained
// line has a positive quantity.
type Lines []Line

func (ls Lines) index(productID string) int {
	for i, l := range ls {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line for productID.
func (ls Lines) Find(productID string) (Line, bool) {
	if i := ls.index(productID); i >= 0 {
		return ls[i], true
	}
	return Line{}, false
}

// Add puts one unit of p in the cart. It refuses Cercle-only products for
// other tiers and reports whether the cart changed.
func (ls *Lines) Add(p ProductSnapshot, tier loyalty.Tier) bool {
	if !loyalty.CanPurchase(tier, p.CercleOnly) {
		return false
	}
	ls.add(p)
	return true
}

func (ls *Lines) add(p ProductSnapshot) {
	if i := ls.index(p.ID); i >= 0 {
		(*ls)[i].Product = p
		(*ls)[i].Quantity++
		return
	}
	*ls = append(*ls, Line{Product: p, Quantity: 1})
}

// UpdateQuantity adds delta to a line and drops the line when it reaches zero.
// It reports whether the product was in the cart.
func (ls *Lines) UpdateQuantity(productID string, delta int) bool {
	i := ls.index(productID)
	if i < 0 {
		return false
	}
	(*ls)[i].Quantity += delta
	if (*ls)[i].Quantity <= 0 {
		ls.Remove(productID)
	}
	return true
}

// Remove drops a line if present.
func (ls *Lines) Remove(productID string) {
	i := ls.index(productID)
	if i < 0 {
		return
	}
	*ls = append((*ls)[:i], (*ls)[i+1:]...)
}

func (ls Lines) Subtotal() int64 {
	var sum int64
	for _, l := range ls {
		sum += l.Total()
	}
	return sum
}

// Count is the number of units across all lines.
func (ls Lines) Count() int {
	n := 0
	for _, l := range ls {
		n += l.Quantity
	}
	return n
}

func (ls Lines) Empty() bool {
	return len(ls) == 0
}

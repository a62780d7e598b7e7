package ordering

import (
	"math"
	"sort"

	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
)

// CartLine is the accumulated quantity of one product under one sale unit.
type CartLine struct {
	Key           CartKey `json:"key"`
	ProductID     string  `json:"productId"`
	ProductName   string  `json:"productName"`
	SaleUnitID    string  `json:"saleUnitId"`
	SaleUnitLabel string  `json:"saleUnitLabel"`
	CategoryID    string  `json:"categoryId"`
	CategoryName  string  `json:"categoryName"`

	// Quantity counts packs and is never stored at zero
	Quantity int `json:"quantity"`

	// UnitPrice is per base unit
	UnitPrice types.Money `json:"unitPrice"`

	// Multiplier is frozen when the line is created
	Multiplier int `json:"multiplier"`

	seq uint64
}

// LineTotal = Quantity × UnitPrice × Multiplier.
func (l CartLine) LineTotal() types.Money {
	return l.UnitPrice.
		Mul(types.MoneyFromInt(l.Quantity)).
		Mul(types.MoneyFromInt(l.Multiplier))
}

// BaseUnits = Quantity × Multiplier.
func (l CartLine) BaseUnits() int {
	return l.Quantity * l.Multiplier
}

// MaxLineBaseUnits bounds Quantity × Multiplier of a single line.
const MaxLineBaseUnits = math.MaxInt32

// maxQuantity is the largest pack count a line with multiplier may hold.
func maxQuantity(multiplier int) int {
	if multiplier <= 1 {
		return MaxLineBaseUnits
	}
	return MaxLineBaseUnits / multiplier
}

// CartState is the order-entry lifecycle derived from the cart contents.
type CartState string

const (
	CartEmpty    CartState = "empty"
	CartBuilding CartState = "building"
)

// Cart maps cart keys to lines. Not safe for concurrent use; the owning
// session serialises access.
type Cart struct {
	lines map[CartKey]*CartLine
	seq   uint64
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{lines: make(map[CartKey]*CartLine)}
}

// Increment adds delta packs of product under option and returns the
// resulting line. The bool is false when no line exists afterwards.
//
// Quantities are clamped at zero and a line reaching zero is removed.
// Increments saturate so that a line never exceeds MaxLineBaseUnits.
// A new line is created only when delta > 0; it takes the product base price
// and the option multiplier, both of which stay fixed for the line's lifetime.
func (c *Cart) Increment(product *assortment.Product, category *assortment.Category, option *assortment.SaleUnitOption, delta int) (CartLine, bool) {
	key := ResolveKey(category, product, option)

	line, exists := c.lines[key]
	if delta == 0 {
		if exists {
			return *line, true
		}
		return CartLine{}, false
	}

	if !exists {
		if delta < 0 {
			return CartLine{}, false
		}

		unit := resolveSaleUnit(category, option)
		c.seq++
		line = &CartLine{
			Key:           key,
			ProductID:     product.ID,
			ProductName:   product.Name,
			SaleUnitID:    unit.ID,
			SaleUnitLabel: unit.Label,
			CategoryID:    category.ID,
			CategoryName:  category.Name,
			Quantity:      min(delta, maxQuantity(unit.Multiplier)),
			UnitPrice:     product.BasePrice,
			Multiplier:    unit.Multiplier,
			seq:           c.seq,
		}
		c.lines[key] = line
		return *line, true
	}

	limit := maxQuantity(line.Multiplier)
	if delta > 0 && delta > limit-line.Quantity {
		line.Quantity = limit
		return *line, true
	}

	qty := line.Quantity + delta
	if qty <= 0 {
		delete(c.lines, key)
		return CartLine{}, false
	}

	line.Quantity = qty
	return *line, true
}

// Get returns a copy of the line stored under key.
func (c *Cart) Get(key CartKey) (CartLine, bool) {
	line, ok := c.lines[key]
	if !ok {
		return CartLine{}, false
	}
	return *line, true
}

// Lines returns copies of all lines in creation order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
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

// State reports Empty or Building.
func (c *Cart) State() CartState {
	if c.IsEmpty() {
		return CartEmpty
	}
	return CartBuilding
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = make(map[CartKey]*CartLine)
}

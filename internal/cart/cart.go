package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// Line is one product in the cart. ProductID is unique within a Cart and
// Quantity is always at least 1; a line that would drop to 0 is removed.
type Line struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns quantity × unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineFromProduct snapshots the catalog fields a cart line carries.
func LineFromProduct(p models.Product) Line {
	return Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	}
}

// Cart is an ordered collection of lines. The zero value is an empty cart.
// None of the mutations fail.
type Cart struct {
	lines []Line
}

// New builds a cart from previously stored lines, dropping lines with a
// quantity below 1 and any repeated product ids.
func New(lines ...Line) Cart {
	var c Cart
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		if _, dup := seen[line.ProductID]; dup {
			continue
		}
		seen[line.ProductID] = struct{}{}
		c.lines = append(c.lines, line)
	}
	return c
}

// Add increments the quantity of an existing line or appends a new line with quantity 1.
func (c *Cart) Add(p models.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, LineFromProduct(p))
}

// UpdateQuantity sets the quantity of a line. Quantities of 0 or less remove
// the line; unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID int64) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// TotalItemCount is the sum of all line quantities.
func (c Cart) TotalItemCount() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity × unit price over all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

type cartDocument struct {
	Items []Line `json:"items"`
}

// MarshalJSON encodes the cart as {"items":[...]}.
func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartDocument{Items: c.Lines()})
}

// UnmarshalJSON decodes {"items":[...]} and applies the same normalisation as New.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var doc cartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = New(doc.Items...)
	return nil
}

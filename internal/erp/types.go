package erp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Flag is a Frappe check field: 0 or 1 on the wire.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	switch s {
	case "", "null", "0", "false":
		*f = false
		return nil
	case "1", "true":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid check value %s", b)
	}
	*f = n != 0
	return nil
}

// Line is a row of an order or shipment items table.
type Line struct {
	Parent   string          `json:"parent,omitempty"`
	ItemCode string          `json:"item_code" validate:"required"`
	ItemName string          `json:"item_name,omitempty"`
	Qty      float64         `json:"qty" validate:"gt=0"`
	Rate     decimal.Decimal `json:"rate"`
}

// Amount is qty times rate.
func (l Line) Amount() decimal.Decimal {
	return l.Rate.Mul(decimal.NewFromFloat(l.Qty))
}

var lineFields = []string{"parent", "item_code", "item_name", "qty", "rate"}

func lineSearch(lines []Line) []string {
	out := make([]string, 0, len(lines)*2)
	for _, l := range lines {
		out = append(out, l.ItemCode, l.ItemName)
	}
	return out
}

func linesTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}

const dateLayout = "2006-01-02"

// dateValue turns a Frappe date into a sortable value. Empty or unparseable
// dates are nil so they sort last.
func dateValue(s string) any {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

func textValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// FormatCurrency renders an amount with thousands separators.
func FormatCurrency(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func today() string {
	return time.Now().Format(dateLayout)
}

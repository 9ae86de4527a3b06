package models

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Decimal is a fixed point clinical measurement. The backend renders
// decimals as JSON strings; both strings and numbers are accepted and
// Decimal always marshals as a JSON number.
type Decimal struct {
	value apd.Decimal
}

func NewDecimal(s string) (Decimal, error) {
	var d Decimal
	if err := d.set(strings.TrimSpace(s)); err != nil {
		return Decimal{}, err
	}
	return d, nil
}

func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromInt builds coefficient * 10^exponent, e.g. (986, -1) is 98.6.
func DecimalFromInt(coefficient int64, exponent int32) Decimal {
	var d Decimal
	d.value.Set(apd.New(coefficient, exponent))
	return d
}

func (d Decimal) String() string {
	return d.value.Text('f')
}

func (d Decimal) Float64() float64 {
	f, _ := d.value.Float64()
	return f
}

func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.value.Text('f')), nil
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		d.value = apd.Decimal{}
		return nil
	}
	return d.set(s)
}

// set parses s and rejects NaN and infinities, which have no JSON number form.
func (d *Decimal) set(s string) error {
	var v apd.Decimal
	if _, _, err := v.SetString(s); err != nil {
		return fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if v.Form != apd.Finite {
		return fmt.Errorf("invalid decimal %q: not a finite number", s)
	}
	d.value.Set(&v)
	return nil
}

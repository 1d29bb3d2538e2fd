// Package model defines domain types used by the service.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog record as the remote catalog service stores it.
//
// ID is assigned by the service on create and never changes afterwards.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       Price    `json:"price"`
	Stock       Quantity `json:"stock"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
}

// Price keeps the textual form of a price until it is validated.
// It decodes from either a JSON string or a JSON number.
type Price string

// UnmarshalJSON accepts "12.50", 12.5 and null.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Decimal parses the price. Surrounding whitespace is ignored.
func (p Price) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(p)))
}

// Quantity is a stock count. Grid editors send numbers as text, so it
// decodes from a JSON number or a numeric string.
type Quantity int64

// UnmarshalJSON accepts 10, "10" and null.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = 0
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	n, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = n
	return nil
}

// ParseQuantity parses a base-10 stock count.
func ParseQuantity(s string) (Quantity, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stock %q is not an integer", s)
	}
	return Quantity(n), nil
}

// IndexOf returns the position of id in rows or -1.
func IndexOf(rows []Product, id string) int {
	for i := range rows {
		if rows[i].ID == id {
			return i
		}
	}
	return -1
}

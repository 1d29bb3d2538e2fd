package model

import (
	"fmt"
	"strings"
)

// Draft field names as bound by the add-product form.
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldStock       = "stock"
	FieldCategory    = "category"
	FieldDescription = "description"
)

// DraftFields lists the form inputs in display order.
var DraftFields = []string{FieldName, FieldPrice, FieldStock, FieldCategory, FieldDescription}

// Draft is the staging buffer for a product that has not been created yet.
// Every field holds raw form text.
type Draft struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// FieldError reports a draft field rejected before any network call.
type FieldError struct {
	Fields []string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", strings.Join(e.Fields, ", "), e.Reason)
}

// IsEmpty reports whether every field is empty.
func (d Draft) IsEmpty() bool { return d == Draft{} }

// Get returns the text bound to field.
func (d Draft) Get(field string) (string, bool) {
	switch field {
	case FieldName:
		return d.Name, true
	case FieldPrice:
		return d.Price, true
	case FieldStock:
		return d.Stock, true
	case FieldCategory:
		return d.Category, true
	case FieldDescription:
		return d.Description, true
	}
	return "", false
}

// Set binds value to field. Unknown fields are rejected.
func (d *Draft) Set(field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldPrice:
		d.Price = value
	case FieldStock:
		d.Stock = value
	case FieldCategory:
		d.Category = value
	case FieldDescription:
		d.Description = value
	default:
		return fmt.Errorf("unknown draft field %q", field)
	}
	return nil
}

// Missing returns the required fields that are blank.
func (d Draft) Missing() []string {
	var out []string
	for _, f := range []string{FieldName, FieldPrice, FieldStock, FieldCategory} {
		if v, _ := d.Get(f); strings.TrimSpace(v) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Product validates the draft and converts it into a record without identity.
func (d Draft) Product() (Product, error) {
	if missing := d.Missing(); len(missing) > 0 {
		return Product{}, &FieldError{Fields: missing, Reason: "required"}
	}
	price := Price(strings.TrimSpace(d.Price))
	if _, err := price.Decimal(); err != nil {
		return Product{}, &FieldError{Fields: []string{FieldPrice}, Reason: "must be a decimal number"}
	}
	stock, err := ParseQuantity(d.Stock)
	if err != nil {
		return Product{}, &FieldError{Fields: []string{FieldStock}, Reason: "must be an integer"}
	}
	return Product{
		Name:        strings.TrimSpace(d.Name),
		Price:       price,
		Stock:       stock,
		Category:    strings.TrimSpace(d.Category),
		Description: strings.TrimSpace(d.Description),
	}, nil
}

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProductDecodesLenientNumbers(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Product
	}{
		{"numbers", `{"id":"7","name":"Mouse","price":25.5,"stock":10,"category":"Peripherals"}`,
			Product{ID: "7", Name: "Mouse", Price: "25.5", Stock: 10, Category: "Peripherals"}},
		{"strings", `{"id":"7","name":"Mouse","price":"25","stock":"10"}`,
			Product{ID: "7", Name: "Mouse", Price: "25", Stock: 10}},
		{"nulls", `{"id":"8","price":null,"stock":null}`,
			Product{ID: "8"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got Product
			if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("product mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProductRejectsNonNumericStock(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"1","stock":"ten"}`), &p); err == nil {
		t.Fatalf("expected error for non-numeric stock")
	}
}

func TestDraftSetAndGet(t *testing.T) {
	var d Draft
	for i, f := range DraftFields {
		if err := d.Set(f, string(rune('a'+i))); err != nil {
			t.Fatalf("set %s: %v", f, err)
		}
	}
	want := Draft{Name: "a", Price: "b", Stock: "c", Category: "d", Description: "e"}
	if d != want {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if err := d.Set("sku", "x"); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, ok := d.Get("sku"); ok {
		t.Fatalf("expected unknown field lookup to fail")
	}
}

func TestDraftMissingRequiredFields(t *testing.T) {
	d := Draft{Name: "  ", Price: "10", Stock: "5", Category: "Peripherals"}
	if diff := cmp.Diff([]string{FieldName}, d.Missing()); diff != "" {
		t.Fatalf("missing mismatch:\n%s", diff)
	}
	_, err := d.Product()
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Fields[0] != FieldName {
		t.Fatalf("expected name field error, got %v", err)
	}
	if got := (Draft{}).Missing(); len(got) != 4 {
		t.Fatalf("expected 4 missing fields on empty draft, got %v", got)
	}
}

func TestDraftProductConversion(t *testing.T) {
	d := Draft{Name: " Keyboard ", Price: "49.90", Stock: "3", Category: "Peripherals"}
	p, err := d.Product()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := Product{Name: "Keyboard", Price: "49.90", Stock: 3, Category: "Peripherals"}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("product mismatch (-want +got):\n%s", diff)
	}

	bad := []Draft{
		{Name: "k", Price: "abc", Stock: "3", Category: "c"},
		{Name: "k", Price: "1", Stock: "3.5", Category: "c"},
	}
	for _, b := range bad {
		if _, err := b.Product(); err == nil {
			t.Fatalf("expected conversion error for %+v", b)
		}
	}
}

func TestIndexOf(t *testing.T) {
	rows := []Product{{ID: "1"}, {ID: "2"}}
	if IndexOf(rows, "2") != 1 || IndexOf(rows, "3") != -1 {
		t.Fatalf("unexpected IndexOf results")
	}
}

// Package summary computes the two read-only catalog widgets shown next to
// the grid. They read the same catalog source as the editor's initial load
// and never write back.
package summary

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/product-catalog-editor/internal/model"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
)

// Source is the read side of the catalog.
type Source interface {
	List(ctx context.Context) ([]model.Product, error)
}

// Uncategorized labels products without a category.
const Uncategorized = "Uncategorized"

// StockBucket is one bar of the stock chart.
type StockBucket struct {
	Category string `json:"category"`
	Products int    `json:"products"`
	Stock    int64  `json:"stock"`
}

// ValueBucket is one bar of the inventory value chart.
type ValueBucket struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
}

// Widgets serves both charts from src.
type Widgets struct {
	src Source
}

// New returns Widgets reading from src.
func New(src Source) *Widgets { return &Widgets{src: src} }

func category(p model.Product) string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return Uncategorized
}

// StockByCategory sums stock per category, sorted by category.
func (w *Widgets) StockByCategory(ctx context.Context) ([]StockBucket, error) {
	rows, err := w.src.List(ctx)
	if err != nil {
		return nil, err
	}
	return StockByCategory(rows), nil
}

// StockByCategory is the pure form of Widgets.StockByCategory.
func StockByCategory(rows []model.Product) []StockBucket {
	idx := map[string]*StockBucket{}
	for _, p := range rows {
		c := category(p)
		b, ok := idx[c]
		if !ok {
			b = &StockBucket{Category: c}
			idx[c] = b
		}
		b.Products++
		b.Stock += int64(p.Stock)
	}
	out := make([]StockBucket, 0, len(idx))
	for _, b := range idx {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// InventoryValue sums price × stock per category, sorted by descending value.
func (w *Widgets) InventoryValue(ctx context.Context) ([]ValueBucket, error) {
	rows, err := w.src.List(ctx)
	if err != nil {
		return nil, err
	}
	return InventoryValue(rows), nil
}

// InventoryValue is the pure form of Widgets.InventoryValue. Rows whose price
// does not parse are left out.
func InventoryValue(rows []model.Product) []ValueBucket {
	idx := map[string]decimal.Decimal{}
	for _, p := range rows {
		price, err := p.Price.Decimal()
		if err != nil {
			obs.Logger.Debug("summary_price_skipped", "id", p.ID, "price", string(p.Price))
			continue
		}
		c := category(p)
		idx[c] = idx[c].Add(price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	out := make([]ValueBucket, 0, len(idx))
	for c, v := range idx {
		out = append(out, ValueBucket{Category: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Value.Cmp(out[j].Value); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

package provider

import "github.com/unkn0wn-root/cacheaspect/internal/shape"

// Ranked turns a slice into sorted-set members scored by position, so the
// set reads back in slice order.
func Ranked(list any) ([]Z, error) {
	items, err := shape.Elements(list)
	if err != nil {
		return nil, err
	}
	out := make([]Z, len(items))
	for i, it := range items {
		out[i] = Z{Score: float64(i), Member: it}
	}
	return out, nil
}

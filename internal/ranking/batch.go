package ranking

import "rftrank/internal"

// RankMany resolves a list of product codes to their best process orders.
// Each code is processed independently; a failure becomes an in-band error
// tag on that entry and never aborts the batch. Every input code appears
// exactly once in the output.
func (e *Engine) RankMany(codes []string) internal.ResolvedList {
	out := internal.ResolvedList{Product: make([]internal.ProductResolution, 0, len(codes))}
	for _, code := range codes {
		res, err := e.Rank(code)
		if err != nil {
			out.Product = append(out.Product, internal.ProductResolution{Code: code, Error: err.Error()})
			continue
		}
		out.Product = append(out.Product, internal.ProductResolution{Code: code, PO: res.PO})
	}
	return out
}

// RankList is RankMany over the upstream wire shape.
func (e *Engine) RankList(list internal.ProductList) internal.ResolvedList {
	codes := make([]string, 0, len(list.Product))
	for _, p := range list.Product {
		codes = append(codes, p.Code)
	}
	return e.RankMany(codes)
}

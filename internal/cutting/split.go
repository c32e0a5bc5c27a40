package cutting

// SplitOverlength replaces every demand longer than the stock length by
// full-stock pieces plus one residual demand. Zero residuals are dropped.
func SplitOverlength(demands []Demand, stockLength int) []Demand {
	out := make([]Demand, 0, len(demands))
	for _, d := range demands {
		if stockLength <= 0 || d.Length <= stockLength {
			out = append(out, d)
			continue
		}
		whole := d.Length / stockLength
		out = append(out, Demand{Quantity: whole * d.Quantity, Length: stockLength})
		if rest := d.Length % stockLength; rest > 0 {
			out = append(out, Demand{Quantity: d.Quantity, Length: rest})
		}
	}
	return out
}

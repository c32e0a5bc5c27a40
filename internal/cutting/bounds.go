package cutting

import "fmt"

// EstimateBounds derives roll bounds and per-order slot caps from a greedy
// first-fit walk over the demands in input order.
func EstimateBounds(demands []Demand, stockLength int) (Bounds, error) {
	if err := validateDemands(demands, stockLength); err != nil {
		return Bounds{}, err
	}

	bounds := Bounds{MaxRolls: 1, PerOrderCap: make([]int, len(demands))}
	fill, total := 0, 0
	for i, d := range demands {
		bounds.PerOrderCap[i] = min(d.Quantity, stockLength/d.Length)

		if whole := d.Quantity * d.Length; fill+whole <= stockLength {
			fill += whole
			total += whole
			continue
		}

		// Piece by piece: top up the open roll, then fill fresh rolls.
		total += d.Quantity * d.Length
		topUp := min(d.Quantity, (stockLength-fill)/d.Length)
		fill += topUp * d.Length
		if remaining := d.Quantity - topUp; remaining > 0 {
			perRoll := stockLength / d.Length
			opened := (remaining + perRoll - 1) / perRoll
			bounds.MaxRolls += opened
			fill = (remaining - (opened-1)*perRoll) * d.Length
		}
	}
	bounds.MinRolls = (total + stockLength - 1) / stockLength

	return bounds, nil
}

func validateDemands(demands []Demand, stockLength int) error {
	if stockLength <= 0 {
		return fmt.Errorf("%w: stock length %d", ErrInvalidDemand, stockLength)
	}
	if len(demands) == 0 {
		return fmt.Errorf("%w: no demands", ErrInvalidDemand)
	}
	for i, d := range demands {
		if d.Quantity <= 0 || d.Length <= 0 || d.Length > stockLength {
			return fmt.Errorf("%w: demand %d is %d x %d for stock length %d", ErrInvalidDemand, i, d.Quantity, d.Length, stockLength)
		}
	}
	return nil
}

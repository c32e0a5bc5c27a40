package cutting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eugenenazirov/rollcut/internal/model"
)

// Variant selects the auxiliary waste constraints layered on the base
// formulation.
type Variant int

const (
	// VariantWideBand buckets waste at most maxLen-minLen or at least
	// maxLen+minLen. The low band includes its bound, so a zero-waste roll
	// stays admissible when every order has the same length.
	VariantWideBand Variant = iota + 1
	// VariantNarrowBand buckets waste at most maxLen-minLen or at least maxLen,
	// with the same inclusive low band as VariantWideBand.
	VariantNarrowBand
	// VariantLongestSplit buckets waste around maxLen.
	VariantLongestSplit
	// VariantUnbucketed adds no waste constraints.
	VariantUnbucketed
)

// DefaultVariants is the fallback order used by a Cutter.
var DefaultVariants = []Variant{VariantWideBand, VariantNarrowBand, VariantLongestSplit, VariantUnbucketed}

var variantNames = map[Variant]string{
	VariantWideBand:     "wide-band",
	VariantNarrowBand:   "narrow-band",
	VariantLongestSplit: "longest-split",
	VariantUnbucketed:   "unbucketed",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "variant(" + strconv.Itoa(int(v)) + ")"
}

// MarshalText renders the variant name in JSON payloads.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ParseVariant accepts a variant name or its number.
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range variantNames {
		if name == s {
			return v, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := variantStrategies[Variant(n)]; ok {
			return Variant(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// variantStrategy adds the auxiliary constraints of a variant and returns
// the per-slot indicator literals it introduced, if any.
type variantStrategy func(b *model.Builder, waste []model.IntVar, minLen, maxLen int64) []model.BoolVar

var variantStrategies = map[Variant]variantStrategy{
	VariantWideBand:     wideBand,
	VariantNarrowBand:   narrowBand,
	VariantLongestSplit: longestSplit,
	VariantUnbucketed:   unbucketed,
}

func wideBand(b *model.Builder, waste []model.IntVar, minLen, maxLen int64) []model.BoolVar {
	return bucketWaste(b, waste, maxLen-minLen, maxLen+minLen)
}

func narrowBand(b *model.Builder, waste []model.IntVar, minLen, maxLen int64) []model.BoolVar {
	return bucketWaste(b, waste, maxLen-minLen, maxLen)
}

func longestSplit(b *model.Builder, waste []model.IntVar, _, maxLen int64) []model.BoolVar {
	return bucketWaste(b, waste, maxLen, maxLen)
}

func unbucketed(*model.Builder, []model.IntVar, int64, int64) []model.BoolVar {
	return nil
}

// bucketWaste forces every slot's waste into [0, lo] when its indicator is
// set and into [hi, stock] otherwise. Both bounds are inclusive.
func bucketWaste(b *model.Builder, waste []model.IntVar, lo, hi int64) []model.BoolVar {
	low := make([]model.BoolVar, len(waste))
	for j, w := range waste {
		low[j] = b.NewBoolVar().WithName(fmt.Sprintf("low_waste_%d", j))
		b.AddLessOrEqual(w, model.NewConstant(lo)).OnlyEnforceIf(low[j])
		b.AddGreaterOrEqual(w, model.NewConstant(hi)).OnlyEnforceIf(low[j].Not())
	}
	return low
}

// Package export renders cutting plans as XLSX workbooks and printable PDFs.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/eugenenazirov/rollcut/internal/cutting"
)

// ErrEmptyPlan is returned when there is no roll to export.
var ErrEmptyPlan = errors.New("plan has no rolls to export")

// Document is a computed plan together with the problem it answers.
type Document struct {
	ID          string
	CreatedAt   time.Time
	StockLength int
	Demands     []cutting.Demand
	Result      cutting.Result
}

// Efficiency returns the used share of the cut rolls as a percentage.
func (d Document) Efficiency() float64 {
	rolls := len(d.Result.Plan.Rolls)
	if rolls == 0 || d.StockLength <= 0 {
		return 0
	}
	total := float64(rolls * d.StockLength)
	return 100 * (total - float64(d.Result.Plan.TotalWaste())) / total
}

func (d Document) validate() error {
	if len(d.Result.Plan.Rolls) == 0 {
		return ErrEmptyPlan
	}
	if d.StockLength <= 0 {
		return fmt.Errorf("stock length must be positive, got %d", d.StockLength)
	}
	return nil
}

package planio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eugenenazirov/rollcut/internal/cutting"
)

// Input is the parsed two-line text problem.
type Input struct {
	Demands     []cutting.Demand
	StockLength int
}

// ParseInput reads "<quantity> <length> ..." on the first line and the
// stock length on the second. Blank lines before either line are skipped.
func ParseInput(r io.Reader) (Input, error) {
	lines := make([]string, 0, 2)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() && len(lines) < 2 {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Input{}, fmt.Errorf("read input: %w", err)
	}
	if len(lines) < 2 {
		return Input{}, fmt.Errorf("%w: expected 2 lines, got %d", ErrMalformedInput, len(lines))
	}

	fields := strings.Fields(lines[0])
	if len(fields)%2 != 0 {
		return Input{}, fmt.Errorf("%w: odd number of values on demand line", ErrMalformedInput)
	}

	in := Input{Demands: make([]cutting.Demand, 0, len(fields)/2)}
	for i := 0; i < len(fields); i += 2 {
		quantity, err := positiveInt(fields[i])
		if err != nil {
			return Input{}, fmt.Errorf("%w: quantity %d: %v", ErrMalformedInput, i/2+1, err)
		}
		length, err := positiveInt(fields[i+1])
		if err != nil {
			return Input{}, fmt.Errorf("%w: length %d: %v", ErrMalformedInput, i/2+1, err)
		}
		in.Demands = append(in.Demands, cutting.Demand{Quantity: quantity, Length: length})
	}

	stock, err := positiveInt(lines[1])
	if err != nil {
		return Input{}, fmt.Errorf("%w: stock length: %v", ErrMalformedInput, err)
	}
	in.StockLength = stock

	return in, nil
}

// WritePlan prints the result in the line-oriented report format.
func WritePlan(w io.Writer, res cutting.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Status: %s\n\n", res.Status)
	fmt.Fprintf(bw, "Number of Rolls Used: %d\n\n", res.NumRollsUsed)
	for _, roll := range res.Plan.Rolls {
		pieces := make([]string, len(roll.Pieces))
		for i, p := range roll.Pieces {
			pieces[i] = strconv.Itoa(p)
		}
		fmt.Fprintf(bw, "%s   Waste: %d\n", strings.Join(pieces, " "), roll.Waste)
	}
	fmt.Fprintln(bw)

	return bw.Flush()
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

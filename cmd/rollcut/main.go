package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/rollcut/internal/application"
	"github.com/eugenenazirov/rollcut/internal/config"
	"github.com/eugenenazirov/rollcut/internal/cutting"
	"github.com/eugenenazirov/rollcut/internal/export"
	"github.com/eugenenazirov/rollcut/internal/logging"
	"github.com/eugenenazirov/rollcut/internal/planio"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configFile string
	input      string
	xlsxInput  string
	csvInput   string
	stock      int
	timeLimit  time.Duration
	combined   bool
	variants   string
	logLevel   string
	pdfOut     string
	xlsxOut    string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := kingpin.New("rollcut", "Plans how to cut stock rolls into ordered pieces using the fewest rolls")
	app.Terminate(nil)
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	var opts options
	app.Flag("config", "Path to YAML configuration file").StringVar(&opts.configFile)
	app.Flag("input", "Two-line text problem file (default: stdin)").Short('i').StringVar(&opts.input)
	app.Flag("xlsx-input", "Workbook with quantity and length columns").StringVar(&opts.xlsxInput)
	app.Flag("csv-input", "CSV file with quantity and length columns").StringVar(&opts.csvInput)
	app.Flag("stock-length", "Stock roll length for spreadsheet input").Default("0").IntVar(&opts.stock)
	app.Flag("time-limit", "Time limit for each solver attempt").Default("0s").DurationVar(&opts.timeLimit)
	app.Flag("combined-objective", "Also maximise waste consolidation on low-index rolls").BoolVar(&opts.combined)
	app.Flag("variants", "Comma-separated formulation variants to try, in order").StringVar(&opts.variants)
	app.Flag("log-level", "Log level (debug, info, warn, error)").Default("warn").StringVar(&opts.logLevel)
	app.Flag("pdf", "Write a printable PDF of the plan to this path").StringVar(&opts.pdfOut)
	app.Flag("xlsx", "Write an XLSX workbook of the plan to this path").StringVar(&opts.xlsxOut)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "rollcut: %v\n", err)
		return 2
	}

	if err := execute(opts, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "rollcut: %v\n", err)
		if errors.Is(err, cutting.ErrAllVariantsExhausted) {
			return 3
		}
		return 1
	}
	return 0
}

func execute(opts options, stdin io.Reader, stdout io.Writer) error {
	overrides := &config.CLIOverrides{ConfigFile: opts.configFile}
	if opts.timeLimit > 0 {
		overrides.SolverTimeLimit = &opts.timeLimit
	}
	if opts.combined {
		overrides.CombinedObjective = &opts.combined
	}
	if opts.variants != "" {
		overrides.VariantsStr = &opts.variants
	}
	if opts.logLevel != "" {
		overrides.LogLevel = &opts.logLevel
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	in, err := readProblem(opts, cfg, stdin)
	if err != nil {
		return err
	}

	demands := cutting.SplitOverlength(in.Demands, in.StockLength)
	planner := application.NewPlanner(cfg, logger)
	res, err := planner.CutRolls(demands, in.StockLength)
	if err != nil {
		return err
	}
	logger.Info("plan computed",
		zap.Int("rolls", res.NumRollsUsed),
		zap.Stringer("variant", res.Variant),
		zap.Duration("wall_time", res.WallTime),
	)

	if err := planio.WritePlan(stdout, res); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	doc := export.Document{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		StockLength: in.StockLength,
		Demands:     demands,
		Result:      res,
	}
	if opts.pdfOut != "" {
		if err := writeFile(opts.pdfOut, func(w io.Writer) error { return export.WritePDF(w, doc) }); err != nil {
			return fmt.Errorf("write PDF: %w", err)
		}
	}
	if opts.xlsxOut != "" {
		if err := writeFile(opts.xlsxOut, func(w io.Writer) error { return export.WriteXLSX(w, doc) }); err != nil {
			return fmt.Errorf("write XLSX: %w", err)
		}
	}
	return nil
}

// readProblem picks the input source. Spreadsheets carry no stock length, so
// it comes from the flag or the configured default.
func readProblem(opts options, cfg config.Config, stdin io.Reader) (planio.Input, error) {
	sheet, reader := opts.xlsxInput, planio.ReadDemandsXLSX
	if opts.csvInput != "" {
		if sheet != "" {
			return planio.Input{}, errors.New("--xlsx-input and --csv-input are mutually exclusive")
		}
		sheet, reader = opts.csvInput, planio.ReadDemandsCSV
	}

	if sheet == "" {
		r := stdin
		if opts.input != "" && opts.input != "-" {
			f, err := os.Open(opts.input)
			if err != nil {
				return planio.Input{}, fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			r = f
		}
		return planio.ParseInput(r)
	}

	f, err := os.Open(sheet)
	if err != nil {
		return planio.Input{}, fmt.Errorf("open %s: %w", filepath.Base(sheet), err)
	}
	defer f.Close()

	demands, err := reader(f)
	if err != nil {
		return planio.Input{}, err
	}
	stock := opts.stock
	if stock <= 0 {
		stock = cfg.StockLength
	}
	return planio.Input{Demands: demands, StockLength: stock}, nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return render(f)
}

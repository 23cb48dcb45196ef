// Package main underwrites a single deal from flags and prints the report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/reporting"
	"underwriting-lab/internal/underwriting"
)

var inputs = domain.DefaultDealInputs("")

var (
	tenantID      string
	format        string
	outPath       string
	withMemo      bool
	price         float64
	rent          float64
	expenses      float64
	lastSalePrice float64
)

// signalFlags are optional market and risk inputs. Only flags that are set reach the model.
var signalFlags = map[string]*float64{
	"days-on-market": new(float64),
	"yoy-growth":     new(float64),
	"volatility":     new(float64),
	"liquidity":      new(float64),
	"crime-index":    new(float64),
	"school-score":   new(float64),
	"year-built":     new(float64),
}

func main() {
	root := &cobra.Command{
		Use:          "underwrite",
		Short:        "Underwrite one rental deal",
		Long:         "Scores a deal with the tenant's active model and prints a Markdown, CSV or JSON report.",
		SilenceUsage: true,
		RunE:         run,
	}

	f := root.Flags()
	f.StringVar(&tenantID, "tenant", "default", "Tenant whose active model scores the deal")
	f.StringVar(&format, "format", "markdown", "Output format: markdown, csv or json")
	f.StringVarP(&outPath, "out", "o", "", "Write the report to a file instead of stdout")
	f.BoolVar(&withMemo, "memo", false, "Append an LLM investment memo (requires OPENAI_API_KEY)")

	f.StringVar(&inputs.Address, "address", "", "Property address")
	f.StringVar(&inputs.ListingURL, "listing-url", "", "Listing URL")
	f.Float64Var(&price, "price", 0, "Purchase price")
	f.Float64Var(&rent, "rent", 0, "Monthly rent")
	f.Float64Var(&expenses, "expenses", 0, "Monthly operating expenses")
	f.Float64Var(&lastSalePrice, "last-sale-price", 0, "Last recorded sale price")
	f.StringVar(&inputs.LastSaleDate, "last-sale-date", "", "Last recorded sale date")
	f.Float64Var(&inputs.VacancyRate, "vacancy", inputs.VacancyRate, "Vacancy rate (fraction)")
	f.Float64Var(&inputs.DownPaymentPct, "down-pct", inputs.DownPaymentPct, "Down payment percent")
	f.Float64Var(&inputs.InterestRatePct, "rate-pct", inputs.InterestRatePct, "Loan interest rate percent")
	f.IntVar(&inputs.TermYears, "term", inputs.TermYears, "Loan term in years")
	f.IntVar(&inputs.HoldYears, "hold", inputs.HoldYears, "Hold period in years")
	f.Float64Var(&inputs.RentGrowth, "rent-growth", inputs.RentGrowth, "Annual rent growth")
	f.Float64Var(&inputs.ExpenseGrowth, "expense-growth", inputs.ExpenseGrowth, "Annual expense growth")
	f.Float64Var(&inputs.Appreciation, "appreciation", inputs.Appreciation, "Annual appreciation")
	f.Float64Var(&inputs.SaleCostPct, "sale-cost", inputs.SaleCostPct, "Sale cost (fraction of exit value)")
	f.BoolVar(&inputs.UseExitCap, "use-exit-cap", false, "Value the exit with the exit cap rate")
	f.Float64Var(&inputs.ExitCapRate, "exit-cap", inputs.ExitCapRate, "Exit cap rate")

	f.Float64Var(signalFlags["days-on-market"], "days-on-market", 0, "Median days on market")
	f.Float64Var(signalFlags["yoy-growth"], "yoy-growth", 0, "Year-over-year price growth percent")
	f.Float64Var(signalFlags["volatility"], "volatility", 0, "Price volatility percent")
	f.Float64Var(signalFlags["liquidity"], "liquidity", 0, "Liquidity score (0..1)")
	f.Float64Var(signalFlags["crime-index"], "crime-index", 0, "Crime index (0..100)")
	f.Float64Var(signalFlags["school-score"], "school-score", 0, "School score (0..10)")
	f.Float64Var(signalFlags["year-built"], "year-built", 0, "Year the property was built")
	_ = root.MarkFlagRequired("address")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	// Unset money flags stay missing so metrics degrade instead of scoring zeros.
	f := cmd.Flags()
	if f.Changed("price") {
		inputs.Price = &price
	}
	if f.Changed("rent") {
		inputs.MonthlyRent = &rent
	}
	if f.Changed("expenses") {
		inputs.MonthlyExpenses = &expenses
	}
	if f.Changed("last-sale-price") {
		inputs.LastSalePrice = &lastSalePrice
	}

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.Underwriter
	if sig, ok := signalsFromFlags(cmd); ok {
		svc = svc.WithSignals(underwriting.StaticSignals{Value: sig})
	}

	report, err := svc.Underwrite(ctx, underwriting.Request{TenantID: tenantID, Inputs: inputs})
	if err != nil {
		return err
	}

	var body string
	switch format {
	case "markdown", "md":
		body = reporting.RenderDealMarkdown(report)
	case "csv":
		if body, err = reporting.RenderDealCSV(report); err != nil {
			return err
		}
	case "json":
		data, err := json.MarshalIndent(report.Outputs, "", "  ")
		if err != nil {
			return err
		}
		body = string(data) + "\n"
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if withMemo {
		text, err := a.Memo.Memo(ctx, report.Outputs.NarrativeSeed)
		if err != nil {
			log.Warn().Err(err).Msg("memo unavailable")
		} else if format == "markdown" || format == "md" {
			body += "\n## Investment Memo\n\n" + text + "\n"
		} else {
			fmt.Fprintln(os.Stderr, text)
		}
	}

	if outPath == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), body)
		return err
	}
	if err := os.WriteFile(outPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info().Str("report", report.ID).Str("path", outPath).Msg("report written")
	return nil
}

func signalsFromFlags(cmd *cobra.Command) (underwriting.Signals, bool) {
	var sig underwriting.Signals
	set := false
	pick := func(name string) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		set = true
		return signalFlags[name]
	}
	sig.Market.DaysOnMarket = pick("days-on-market")
	sig.Market.YoYGrowthPct = pick("yoy-growth")
	sig.Market.VolatilityPct = pick("volatility")
	sig.Market.LiquidityScore = pick("liquidity")
	sig.Risk.CrimeIndex = pick("crime-index")
	sig.Risk.SchoolScore = pick("school-score")
	sig.YearBuilt = pick("year-built")
	return sig, set
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gobias/adapters/io"
	"gobias/adapters/report"
	"gobias/adapters/stats/estimators"
	"gobias/app"
	"gobias/domain/cohort"
	"gobias/domain/table"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gobias",
		Short: "Epidemiological bias metrics from tabular cohort data",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newRateRatioCmd(),
		newSweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// covariatesFile mirrors the JSON covariate spec format:
//
//	{"covariates": ["age", "county"],
//	 "force_numeric": ["age"],
//	 "force_categorical": ["county"]}
type covariatesFile struct {
	Covariates       []string `json:"covariates"`
	ForceNumeric     []string `json:"force_numeric"`
	ForceCategorical []string `json:"force_categorical"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		tablePath      string
		pgDSN          string
		pgTable        string
		pgQuery        string
		requestFile    string
		idCol          string
		groupCol       string
		exposed        string
		unexposed      string
		outcomeCol     string
		outcomePos     string
		outcomeThr     float64
		thresholdOp    string
		filtersFile    string
		alpha          float64
		minCases       int
		cc             float64
		yates          bool
		mode           string
		covariates     []string
		covariatesPath string
		dropMissing    string
		noIntercept    bool
		robust         bool
		asMarkdown     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a 2x2 or logistic bias analysis on a table file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req app.Request

			if requestFile != "" {
				raw, err := os.ReadFile(requestFile)
				if err != nil {
					return err
				}
				var envelope struct {
					Table   string      `yaml:"table"`
					Request app.Request `yaml:"request"`
				}
				if err := yaml.Unmarshal(raw, &envelope); err != nil {
					return fmt.Errorf("could not parse request file: %w", err)
				}
				if envelope.Table != "" {
					tablePath = envelope.Table
				}
				req = envelope.Request
			} else {
				rule := cohort.OutcomeRule{Col: outcomeCol, Positive: outcomePos}
				if cmd.Flags().Changed("outcome-threshold") {
					thr := outcomeThr
					rule.Threshold = &thr
					rule.Op = cohort.ThresholdOp(thresholdOp)
				}
				req = app.Request{
					Mode:        app.Mode(mode),
					IDCol:       idCol,
					GroupCol:    groupCol,
					Exposed:     exposed,
					Unexposed:   unexposed,
					Outcome:     rule,
					Alpha:       alpha,
					MinCases:    minCases,
					Yates:       yates,
					Covariates:  covariates,
					DropMissing: dropMissing,
					NoIntercept: noIntercept,
					RobustSE:    robust,
				}
				if cmd.Flags().Changed("continuity-correction") {
					v := cc
					req.ContinuityCorrection = &v
				}
				if filtersFile != "" {
					filters, err := loadFilters(filtersFile)
					if err != nil {
						return err
					}
					req.Filters = filters
				}
				if covariatesPath != "" {
					spec, err := loadCovariates(covariatesPath)
					if err != nil {
						return err
					}
					req.Covariates = append(req.Covariates, spec.Covariates...)
					req.ForceNumeric = spec.ForceNumeric
					req.ForceCategorical = spec.ForceCategorical
				}
			}

			frame, err := loadFrame(cmd.Context(), tablePath, pgDSN, pgTable, pgQuery)
			if err != nil {
				return err
			}

			rep, err := app.NewAnalysisService().Run(cmd.Context(), frame, req)
			if err != nil {
				return err
			}

			if asMarkdown {
				fmt.Fprintln(cmd.OutOrStdout(), report.Markdown(rep))
				return nil
			}
			return printJSON(cmd, rep)
		},
	}

	cmd.Flags().StringVar(&tablePath, "table", "", "Path to the demographics table (.csv or .xlsx)")
	cmd.Flags().StringVar(&pgDSN, "pg-dsn", "", "Postgres DSN; read the table from a database instead of a file")
	cmd.Flags().StringVar(&pgTable, "pg-table", "", "Database table to load (with --pg-dsn)")
	cmd.Flags().StringVar(&pgQuery, "pg-query", "", "SQL query to load instead of a whole table (with --pg-dsn)")
	cmd.Flags().StringVar(&requestFile, "request", "", "YAML request file (overrides most flags)")
	cmd.Flags().StringVar(&idCol, "id-col", "id", "ID column name")
	cmd.Flags().StringVar(&groupCol, "group-col", "group", "Group column name")
	cmd.Flags().StringVar(&exposed, "exposed", "", "Exposed group value")
	cmd.Flags().StringVar(&unexposed, "unexposed", "", "Unexposed group value")
	cmd.Flags().StringVar(&outcomeCol, "outcome-col", "", "Outcome source column")
	cmd.Flags().StringVar(&outcomePos, "outcome-positive", "", "Categorical: outcome=1 when outcome-col equals this value")
	cmd.Flags().Float64Var(&outcomeThr, "outcome-threshold", 0, "Numeric: threshold value")
	cmd.Flags().StringVar(&thresholdOp, "threshold-op", "", "Numeric compare op (ge, gt, le, lt, eq, ne)")
	cmd.Flags().StringVar(&filtersFile, "filters-file", "", "Path to filters.json")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level for confidence intervals")
	cmd.Flags().IntVar(&minCases, "min-cases", 15, "Minimum rows after filtering")
	cmd.Flags().Float64Var(&cc, "continuity-correction", 0, "Optional continuity correction (e.g. 0.5); omitted means zero cells yield NaN")
	cmd.Flags().BoolVar(&yates, "yates", true, "Yates continuity correction for chi-square")
	cmd.Flags().StringVar(&mode, "mode", "2x2", "Analysis mode: 2x2 or logit")
	cmd.Flags().StringSliceVar(&covariates, "covariates", nil, "Covariate column names (logit mode)")
	cmd.Flags().StringVar(&covariatesPath, "covariates-file", "", "JSON file with covariates and encoding rules")
	cmd.Flags().StringVar(&dropMissing, "drop-missing", "any", "Missing-row policy: any, outcome, covariates, none")
	cmd.Flags().BoolVar(&noIntercept, "no-intercept", false, "Disable the intercept term")
	cmd.Flags().BoolVar(&robust, "robust", true, "Request HC1 robust standard errors")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Emit a markdown report instead of JSON")

	return cmd
}

func newRateRatioCmd() *cobra.Command {
	var (
		eventsExposed, eventsUnexposed int
		timeExposed, timeUnexposed     float64
		alpha, cc                      float64
	)

	cmd := &cobra.Command{
		Use:   "rate-ratio",
		Short: "Incidence rate ratio from event counts and person-time",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ccPtr *float64
			if cmd.Flags().Changed("continuity-correction") {
				v := cc
				ccPtr = &v
			}
			res, err := estimators.RateRatio(eventsExposed, timeExposed, eventsUnexposed, timeUnexposed, alpha, ccPtr)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().IntVar(&eventsExposed, "events-exposed", 0, "Event count in the exposed arm")
	cmd.Flags().Float64Var(&timeExposed, "time-exposed", 0, "Person-time in the exposed arm")
	cmd.Flags().IntVar(&eventsUnexposed, "events-unexposed", 0, "Event count in the unexposed arm")
	cmd.Flags().Float64Var(&timeUnexposed, "time-unexposed", 0, "Person-time in the unexposed arm")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	cmd.Flags().Float64Var(&cc, "continuity-correction", 0, "Optional correction added to zero event counts")

	return cmd
}

func newSweepCmd() *cobra.Command {
	var requestFile string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one analysis per exposed/unexposed pair, concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(requestFile)
			if err != nil {
				return err
			}
			var envelope struct {
				Table   string           `yaml:"table"`
				Request app.SweepRequest `yaml:"request"`
			}
			if err := yaml.Unmarshal(raw, &envelope); err != nil {
				return fmt.Errorf("could not parse request file: %w", err)
			}

			frame, err := io.ReadTable(envelope.Table)
			if err != nil {
				return err
			}

			analysis := app.NewAnalysisService()
			result, err := app.NewSweepService(analysis).Run(cmd.Context(), frame, envelope.Request)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&requestFile, "request", "", "YAML sweep request file")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

// loadFrame resolves the ingestion source: a file path, or a Postgres
// table or query when a DSN is given.
func loadFrame(ctx context.Context, tablePath, pgDSN, pgTable, pgQuery string) (*table.Frame, error) {
	if pgDSN != "" {
		db, err := io.OpenPostgres(pgDSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if pgQuery != "" {
			return io.ReadQuery(ctx, db, pgQuery)
		}
		if pgTable == "" {
			return nil, fmt.Errorf("--pg-dsn requires --pg-table or --pg-query")
		}
		return io.ReadTableRows(ctx, db, pgTable)
	}
	if tablePath == "" {
		return nil, fmt.Errorf("--table or --pg-dsn is required")
	}
	return io.ReadTable(tablePath)
}

func loadFilters(path string) ([]cohort.Filter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var filters []cohort.Filter
	if err := json.Unmarshal(raw, &filters); err != nil {
		return nil, fmt.Errorf("could not parse filters file: %w", err)
	}
	return filters, nil
}

func loadCovariates(path string) (*covariatesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec covariatesFile
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("could not parse covariates file: %w", err)
	}
	return &spec, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/raw-labs/machine-prediction-demo/adapters/excel"
	"github.com/raw-labs/machine-prediction-demo/adapters/ml"
	"github.com/raw-labs/machine-prediction-demo/adapters/postgres"
	"github.com/raw-labs/machine-prediction-demo/adapters/postgres/migrations"
	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/features"
	"github.com/raw-labs/machine-prediction-demo/internal/harness"
	"github.com/raw-labs/machine-prediction-demo/internal/split"
	"github.com/raw-labs/machine-prediction-demo/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "machines-cli",
		Short: "Offline tooling for the machine failure prediction dashboard",
	}

	rootCmd.AddCommand(
		newClassifiersCmd(),
		newGenerateCmd(),
		newEvaluateCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClassifiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classifiers",
		Short: "List the classifier registry in selector order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tNAME\tDESCRIPTION")
			for _, k := range evaluation.ClassifierKinds {
				fmt.Fprintf(w, "%d\t%s\t%s\n", int(k), k, k.Description())
			}
			return w.Flush()
		},
	}
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultTelemetryConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic feature dataset",
		Long: `Generate a labeled feature dataset shaped like the engine's features
query output. The format follows the --out extension: .xlsx writes a
workbook, anything else JSON. Without --out, JSON goes to stdout.

Example: machines-cli generate --observations 5000 --failure-rate 0.05 --seed 7 --out features.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := generateDataset(config)
			if err != nil {
				return err
			}
			if out == "" {
				return writeDatasetJSON(cmd.OutOrStdout(), ds)
			}
			if err := writeDatasetFile(out, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s: %d failures, %d good\n", out, ds.TotalPositive, ds.TotalNegative)
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Observations, "observations", config.Observations, "Number of observations")
	cmd.Flags().Float64Var(&config.FailureRate, "failure-rate", config.FailureRate, "Share of failure observations")
	cmd.Flags().IntVar(&config.FeatureCount, "features", config.FeatureCount, "Features per observation")
	cmd.Flags().Float64Var(&config.Drift, "drift", config.Drift, "Shift of failing machines, in standard deviations")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed for deterministic output")
	cmd.Flags().StringVar(&out, "out", "", "Output file (.json or .xlsx)")

	return cmd
}

func generateDataset(config testkit.TelemetryGeneratorConfig) (*dataset.Dataset, error) {
	if config.Observations <= 0 || config.FeatureCount <= 0 {
		return nil, core.NewInvalidParameterError("observations/features", "must be positive")
	}
	if config.FailureRate < 0 || config.FailureRate > 1 {
		return nil, core.NewInvalidParameterError("failure-rate", fmt.Sprintf("must be in [0,1], got %v", config.FailureRate))
	}

	obs := testkit.NewTelemetryGenerator(config).GenerateObservations()
	summaries, err := features.Summarize(obs)
	if err != nil {
		return nil, err
	}

	ds := &dataset.Dataset{
		ID:           core.NewDatasetID(),
		Observations: obs,
		FeatureCount: config.FeatureCount,
		Features:     summaries,
		CreatedAt:    time.Now().UTC(),
	}
	for _, o := range obs {
		if o.IsFailure() {
			ds.TotalPositive++
		} else {
			ds.TotalNegative++
		}
	}
	return ds, nil
}

func writeDatasetJSON(w io.Writer, ds *dataset.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

func writeDatasetFile(path string, ds *dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = excel.WriteDataset(f, ds)
	} else {
		err = writeDatasetJSON(f, ds)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func newEvaluateCmd() *cobra.Command {
	var classifier int
	var all bool
	params := evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 0.5}

	cmd := &cobra.Command{
		Use:   "evaluate [dataset-file]",
		Short: "Split a dataset and train classifiers on it",
		Long: `Run the balanced split and classifier harness on a dataset file.
Accepts a dataset JSON (as written by generate), a bare JSON array of
{"features": [...], "failure": n} rows, or an .xlsx export.

Example: machines-cli evaluate features.json --classifier 2 --train-test 0.7 --good-bad 0.3
         machines-cli evaluate features.xlsx --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := loadObservations(args[0])
			if err != nil {
				return err
			}

			kinds := evaluation.ClassifierKinds
			if !all {
				kind, err := evaluation.ParseClassifierKind(classifier)
				if err != nil {
					return err
				}
				kinds = []evaluation.ClassifierKind{kind}
			}

			results, counts, err := runEvaluate(cmd.Context(), obs, params, kinds)
			if err != nil {
				return err
			}
			return printEvaluation(cmd.OutOrStdout(), counts, kinds, results)
		},
	}

	cmd.Flags().IntVar(&classifier, "classifier", int(evaluation.NearestNeighbors), "Classifier index (see classifiers)")
	cmd.Flags().BoolVar(&all, "all", false, "Evaluate every classifier")
	cmd.Flags().Float64Var(&params.TrainFraction, "train-test", params.TrainFraction, "Share of failures used for training")
	cmd.Flags().Float64Var(&params.TargetPositiveRate, "good-bad", params.TargetPositiveRate, "Target share of failures in each subset")

	return cmd
}

// loadObservations reads observations from a dataset JSON, a bare JSON
// array, or an xlsx workbook.
func loadObservations(path string) ([]dataset.Observation, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return excel.ReadObservations(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}

	raw := bytes.TrimSpace(data)
	if field := gjson.GetBytes(data, "observations"); field.IsArray() {
		raw = []byte(field.Raw)
	}

	var obs []dataset.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil, fmt.Errorf("failed to decode observations from %s: %w", path, err)
	}
	if _, err := dataset.CheckSchema(obs); err != nil {
		return nil, err
	}
	return obs, nil
}

func runEvaluate(ctx context.Context, obs []dataset.Observation, params evaluation.SplitParams, kinds []evaluation.ClassifierKind) ([]*evaluation.Report, evaluation.SplitCounts, error) {
	subsets, err := split.Balanced(obs, params)
	if err != nil {
		return nil, evaluation.SplitCounts{}, err
	}
	train := evaluation.Observations(subsets.Train)
	test := evaluation.Observations(subsets.Test)

	h := harness.New(ml.NewRegistry())
	results := make([]*evaluation.Report, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			report, err := h.TrainAndEvaluate(gctx, train, test, kind)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			results[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, subsets.Counts, err
	}
	return results, subsets.Counts, nil
}

func printEvaluation(out io.Writer, counts evaluation.SplitCounts, kinds []evaluation.ClassifierKind, results []*evaluation.Report) error {
	fmt.Fprintf(out, "split: train %d good + %d failures, test %d good + %d failures (requested)\n",
		counts.TrainNegative, counts.TrainPositive, counts.TestNegative, counts.TestPositive)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLASSIFIER\tTRAIN\tTEST\tGOOD\tFAILURE\tACCURACY")
	for i, r := range results {
		correct := r.Good.Correct + r.Failure.Correct
		accuracy := 0.0
		if r.Used.Testing > 0 {
			accuracy = float64(correct) / float64(r.Used.Testing)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d/%d\t%d/%d\t%.3f\n", kinds[i],
			r.Used.Training, r.Used.Testing,
			r.Good.Correct, r.Good.Total, r.Failure.Correct, r.Failure.Total, accuracy)
	}
	return w.Flush()
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres telemetry mirror schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")

	withMigrator := func(ctx context.Context, fn func(*migrations.Migrator) error) error {
		if databaseURL == "" {
			return fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		logger := internal.NewDefaultLogger()
		gw, err := postgres.Connect(ctx, databaseURL, logger)
		if err != nil {
			return err
		}
		defer gw.Close()
		return fn(migrations.NewMigrator(gw.DB(), logger))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
				applied, err := m.Up(cmd.Context())
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
				}
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
				for _, s := range statuses {
					fmt.Fprintf(w, "%s\t%s\t%t\n", s.Version, s.Name, s.Applied)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

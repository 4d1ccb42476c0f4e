// Command od600 processes microplate reader OD600 exports into long-format
// growth tables.
//
// Usage:
//
//	od600 process run.csv --map conditions.csv -o growth.csv
//	od600 watch --in /data/inbox --out /data/processed --map conditions.csv
//
// Ambient settings (log level/format, scan window, unmapped-well policy,
// Kafka sink) come from environment variables; see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plateworks/od600-etl/internal/adapter/csvout"
	httpadapter "github.com/plateworks/od600-etl/internal/adapter/http"
	kafkaadapter "github.com/plateworks/od600-etl/internal/adapter/kafka"
	"github.com/plateworks/od600-etl/internal/config"
	"github.com/plateworks/od600-etl/internal/domain"
	"github.com/plateworks/od600-etl/internal/observability"
	"github.com/plateworks/od600-etl/internal/pipeline"
)

var (
	mappingPath string
	outputPath  string
	inDir       string
	outDir      string
)

func main() {
	root := &cobra.Command{
		Use:           "od600",
		Short:         "Process OD600 plate reader exports into long-format growth tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	processCmd := &cobra.Command{
		Use:   "process INPUT",
		Short: "Process one CSV or XLSX export and write the observation table",
		Args:  cobra.ExactArgs(1),
		RunE:  runProcess,
	}
	processCmd.Flags().StringVar(&mappingPath, "map", "",
		"CSV or XLSX file mapping wells to conditions (Well and Condition columns)")
	processCmd.Flags().StringVarP(&outputPath, "output", "o", "processed_growth_data.csv",
		"path for the processed output table")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and process each new export as it appears",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&inDir, "in", ".", "directory to watch for new exports")
	watchCmd.Flags().StringVar(&outDir, "out", ".", "directory for processed tables")
	watchCmd.Flags().StringVar(&mappingPath, "map", "",
		"CSV or XLSX file mapping wells to conditions (Well and Condition columns)")

	root.AddCommand(processCmd, watchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	p := pipeline.New(cfg, logger, metrics)
	result, err := p.ProcessFile(cmd.Context(), args[0], mappingPath)
	if err != nil {
		return err
	}

	policy := csvout.Policy{DropUnmapped: cfg.UnmappedWellPolicy == config.UnmappedDrop}
	if err := csvout.WriteFile(outputPath, result.Table, policy); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), outputPath, result)
	return nil
}

// printSummary writes the human-facing run summary to stdout. Diagnostics
// detail goes to the log, not here.
func printSummary(w io.Writer, outputPath string, result pipeline.Result) {
	table, d := result.Table, result.Diagnostics

	fmt.Fprintf(w, "Processing complete. Output saved to %q.\n", outputPath)
	fmt.Fprintf(w, "Processed %d data points from %d wells across %d time points.\n",
		len(table.Observations), len(table.Wells()), len(table.TimePoints()))

	if len(table.Observations) > 0 {
		timeMin, timeMax := table.Observations[0].TimeS, table.Observations[0].TimeS
		odMin, odMax := table.Observations[0].OD, table.Observations[0].OD
		for _, obs := range table.Observations[1:] {
			timeMin, timeMax = min(timeMin, obs.TimeS), max(timeMax, obs.TimeS)
			odMin, odMax = min(odMin, obs.OD), max(odMax, obs.OD)
		}
		fmt.Fprintf(w, "Time_s range: %g to %g, OD range: %g to %g\n", timeMin, timeMax, odMin, odMax)
	}

	if table.Annotated {
		if conds := distinctConditions(table); len(conds) > 0 {
			fmt.Fprintf(w, "Conditions: %s\n", strings.Join(conds, ", "))
		}
	}

	if len(d.UnmappedWells) > 0 {
		fmt.Fprintf(w, "Wells with no condition mapping: %s\n", strings.Join(d.UnmappedWells, ", "))
	}
	if n := len(d.Warnings); n > 0 {
		fmt.Fprintf(w, "%d parse warnings, see log for detail.\n", n)
	}
}

// distinctConditions returns the condition labels present in the table, in
// first-appearance order.
func distinctConditions(table domain.Table) []string {
	seen := make(map[string]bool)
	var conds []string
	for _, obs := range table.Observations {
		if obs.Condition == nil || seen[*obs.Condition] {
			continue
		}
		seen[*obs.Condition] = true
		conds = append(conds, *obs.Condition)
	}
	return conds
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	p := pipeline.New(cfg, logger, metrics)

	// Kafka sink is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.ObservationSink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		sink = kafkaWriter
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	policy := csvout.Policy{DropUnmapped: cfg.UnmappedWellPolicy == config.UnmappedDrop}
	watcher := pipeline.NewWatcher(p, inDir, outDir, mappingPath, policy, sink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, watcher, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("watcher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

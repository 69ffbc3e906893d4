package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bptrace/common"
	"bptrace/internal/lister"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bptrace",
		Short: "Branch-predictor trace tools",
		Long:  "bptrace decodes the binary trace files emitted by the branch-predictor simulator.",
	}

	var (
		format   string
		metaPath string
		limit    int
		logLevel string
	)

	listCmd := &cobra.Command{
		Use:   "list <trace-file>",
		Short: "Stream a trace file's records to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			severity, err := common.ParseSeverity(logLevel)
			if err != nil {
				return err
			}
			return lister.Run(cmd.Context(), lister.Config{
				TracePath: args[0],
				MetaPath:  metaPath,
				Format:    format,
				Limit:     limit,
				Output:    os.Stdout,
				Logger:    common.NewStdLoggerWithWriter(os.Stderr, os.Stderr, severity),
			})
		},
	}
	listCmd.Flags().StringVar(&format, "format", lister.FormatText, "output format: text or msgpack")
	listCmd.Flags().StringVar(&metaPath, "meta", "", "path to run.toml (default: next to the trace)")
	listCmd.Flags().IntVar(&limit, "limit", 0, "stop after this many records (0 = all)")
	listCmd.Flags().StringVar(&logLevel, "log-level", "warning", "log severity: debug, info, warning, error")
	rootCmd.AddCommand(listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

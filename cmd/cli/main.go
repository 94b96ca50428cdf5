package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dagingaa/bank-transaction-review/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bank-transaction-review",
	Short: "Review, categorize and re-export bank transaction CSV files",
	Long: `bank-transaction-review processes delimited bank exports: it previews a
file's columns with a suggested mapping, imports transactions through the
same pipeline the web UI uses, and writes filtered, categorized CSV exports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summaryCmd)
}

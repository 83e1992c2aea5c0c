package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"archscan/internal/analysis"
	"archscan/internal/config"
	"archscan/internal/errors"
	"archscan/internal/git"
	"archscan/internal/scan"
)

var (
	rootCmd = &cobra.Command{
		Use:   "archscan",
		Short: "Discover architecture components and their dependencies in a Go module",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	configPath string
	logLevel   string
	format     string
	outPath    string
	baseRef    string
	repoDir    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.PrintErrorWithStackTrace(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	scanCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the archscan YAML config (defaults to archscan.yaml when present)")
	scanCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	scanCmd.Flags().StringVarP(&outPath, "out", "o", "", "Also save the component graph as JSON to this file")

	reportCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")

	impactCmd.Flags().StringVar(&baseRef, "base", "HEAD", "Git revision to diff the working tree against")
	impactCmd.Flags().StringVar(&repoDir, "repo", ".", "Directory of the git repository")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(impactCmd)
}

// loadConfig reads the config file, falling back to archscan.yaml in the
// working directory and then to the built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat("archscan.yaml"); err != nil {
			return config.Default(), nil
		}
		path = "archscan.yaml"
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a module and print its components and relationships",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Project.Root = args[0]
		}

		log := logrus.WithField("root", cfg.Project.Root)
		start := time.Now()
		res, err := scan.Run(cfg, log)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"components": len(res.Graph.Nodes),
			"elapsed":    time.Since(start).Round(time.Millisecond),
		}).Info("scan complete")

		if outPath != "" {
			if err := scan.SaveGraph(res.Graph, outPath); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Graph)
		}
		if format != "text" {
			return fmt.Errorf("unknown format %q", format)
		}
		printGraph(out, res.Graph)
		printFailures(out, res.Failures)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <graph.json>",
	Short: "Print the coupling of every component in a saved graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := scan.LoadGraph(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(g.CouplingReport())
		}
		printCoupling(out, g)
		return nil
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact <graph.json>",
	Short: "List the components affected by uncommitted git changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := scan.LoadGraph(args[0])
		if err != nil {
			return err
		}
		changes, err := git.GetChangedFiles(repoDir, baseRef)
		if err != nil {
			return err
		}
		logrus.WithField("files", len(changes)).Debug("changes detected")

		report := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
		printImpact(cmd.OutOrStdout(), report)
		return nil
	},
}

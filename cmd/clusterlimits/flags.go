package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

type AppFlags struct {
	GlobalConfigFile string
	Hosted           bool
	OutputFormat     string
	HistoryDBPath    string
	Watch            bool
	Monitor          bool
	ClusterID        string
}

func ParseFlags() AppFlags {
	flags, err := parseFlags(newFlagSet(os.Stderr), os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(2)
	}
	return flags
}

func parseFlags(fs *flag.FlagSet, args []string) (AppFlags, error) {
	globalConfigFile := fs.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := fs.String("c", "", "Alias for -config")

	hosted := fs.Bool("hosted", false, "Derive limits for a hosted deployment, where explicit resource-limits elements are rejected (overrides config file)")

	outputFormat := fs.String("output", "", "Output format for derived limits: yaml or json (default yaml)")
	outputFormatAlias := fs.String("o", "", "Alias for -output")

	historyDB := fs.String("history-db", "", "Path to the SQLite database recording derived limits (overrides config file)")

	watch := fs.Bool("watch", false, "Keep running and re-derive limits whenever the configuration file changes")
	watchAlias := fs.Bool("w", false, "Alias for -watch")

	monitor := fs.Bool("monitor", false, "Sample host disk and memory usage against the content node limits of -cluster")
	clusterID := fs.String("cluster", "", "Only print this content cluster; also the cluster used by -monitor")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		Hosted:        *hosted,
		HistoryDBPath: *historyDB,
		Watch:         *watch || *watchAlias,
		Monitor:       *monitor,
		ClusterID:     *clusterID,
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *outputFormat != "" {
		flags.OutputFormat = *outputFormat
	} else if *outputFormatAlias != "" {
		flags.OutputFormat = *outputFormatAlias
	} else {
		flags.OutputFormat = formatYAML
	}

	if flags.OutputFormat != formatYAML && flags.OutputFormat != formatJSON {
		return AppFlags{}, fmt.Errorf("--output must be yaml or json, got '%s'", flags.OutputFormat)
	}
	if flags.Monitor && flags.ClusterID == "" {
		return AppFlags{}, fmt.Errorf("--monitor requires --cluster")
	}

	return flags, nil
}

// newFlagSet returns a flag set that reports parse errors instead of exiting
func newFlagSet(output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("clusterlimits", flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

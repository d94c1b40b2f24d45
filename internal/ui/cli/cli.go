package cli

import (
	"flag"
	"io"
)

const versionString = "1.0.0"
const defaultConfigPath = "./inlinelog.toml"

type cliOptions struct {
	configPath string
	once       bool
	format     string
	output     string
	noColor    bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("inlinelog", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Analyze once, wait for fetches to settle and exit")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, tsv or json")
	fs.StringVar(&opts.output, "output", "", "Write the one-shot report to this path instead of stdout (requires --once)")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored text output")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}

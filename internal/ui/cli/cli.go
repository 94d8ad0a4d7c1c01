package cli

import (
	"argspec/internal/core/config"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	defaultHistoryLimit = 20
	defaultEntryPoint   = "main"
)

// roleList collects -role values. Each value may itself be comma separated.
type roleList []string

func (r *roleList) String() string { return strings.Join(*r, ",") }

func (r *roleList) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*r = append(*r, name)
		}
	}
	return nil
}

// counter is a boolean flag that counts how often it was given.
type counter int

func (c *counter) String() string { return strconv.Itoa(int(*c)) }

func (c *counter) Set(value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if on {
		*c++
	}
	return nil
}

func (c *counter) IsBoolFlag() bool { return true }

type cliOptions struct {
	configPath     string
	configSet      bool
	collectionPath string
	singleRole     bool
	roles          roleList
	output         string
	tsv            string
	markdown       string
	dryRun         bool
	validateOnly   bool
	listRoles      bool
	watch          bool
	ui             bool
	history        bool
	fromDefaults   string
	entryPoint     string
	historyLimit   int
	metricsAddr    string
	quiet          bool
	verbosity      counter
	version        bool
	args           []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("argspec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	fs.StringVar(&opts.collectionPath, "collection-path", "", "Ansible collection root (or role directory with -single-role)")
	fs.BoolVar(&opts.singleRole, "single-role", false, "Treat the collection path as a single role directory")
	fs.Var(&opts.roles, "role", "Only process this role (repeatable, comma separated)")
	fs.StringVar(&opts.output, "output", "", "Write all roles into this single file instead of meta/argument_specs.yml")
	fs.StringVar(&opts.tsv, "tsv", "", "Also write an option report as TSV to this path")
	fs.StringVar(&opts.markdown, "markdown", "", "Also write an option report as Markdown to this path")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print generated specs instead of writing them")
	fs.BoolVar(&opts.validateOnly, "validate-only", false, "Validate existing argument_specs.yml files and exit")
	fs.BoolVar(&opts.listRoles, "list-roles", false, "List discovered roles and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Regenerate specs when task files change")
	fs.BoolVar(&opts.ui, "ui", false, "Show a terminal dashboard in watch mode")
	fs.BoolVar(&opts.history, "history", false, "List recent runs from the history store and exit")
	fs.StringVar(&opts.fromDefaults, "from-defaults", "", "Generate the spec from this defaults file instead of task files (needs -single-role)")
	fs.StringVar(&opts.entryPoint, "entry-point", defaultEntryPoint, "Entry point name used with -from-defaults")
	fs.IntVar(&opts.historyLimit, "history-limit", defaultHistoryLimit, "Number of runs shown by -history")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address in watch mode")
	fs.BoolVar(&opts.quiet, "q", false, "Only log errors")
	fs.Var(&opts.verbosity, "v", "Increase log verbosity (repeat for more)")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configSet = true
		}
	})

	opts.args = fs.Args()
	return opts, nil
}

// validateModes rejects flag combinations that cannot run together.
func validateModes(opts cliOptions) error {
	modes := make([]string, 0, 4)
	if opts.validateOnly {
		modes = append(modes, "-validate-only")
	}
	if opts.listRoles {
		modes = append(modes, "-list-roles")
	}
	if opts.history {
		modes = append(modes, "-history")
	}
	if opts.watch {
		modes = append(modes, "-watch")
	}
	if opts.fromDefaults != "" {
		modes = append(modes, "-from-defaults")
	}
	if len(modes) > 1 {
		return fmt.Errorf("%s cannot be combined", strings.Join(modes, ", "))
	}

	if len(opts.args) > 1 {
		return fmt.Errorf("expected at most one positional collection path, got %d", len(opts.args))
	}
	if len(opts.args) == 1 && opts.collectionPath != "" {
		return fmt.Errorf("collection path given both as -collection-path and positional argument")
	}
	if opts.quiet && opts.verbosity > 0 {
		return fmt.Errorf("-q and -v cannot be combined")
	}
	if opts.ui && !opts.watch {
		return fmt.Errorf("-ui requires -watch")
	}
	if opts.metricsAddr != "" && !opts.watch {
		return fmt.Errorf("-metrics-addr requires -watch")
	}
	if opts.fromDefaults != "" && !opts.singleRole {
		return fmt.Errorf("-from-defaults requires -single-role")
	}
	if opts.fromDefaults != "" && len(opts.roles) > 0 {
		return fmt.Errorf("-role cannot be used with -from-defaults")
	}
	if ep := strings.TrimSpace(opts.entryPoint); ep != "" && ep != defaultEntryPoint && opts.fromDefaults == "" {
		return fmt.Errorf("-entry-point requires -from-defaults")
	}
	if opts.historyLimit <= 0 {
		return fmt.Errorf("-history-limit must be > 0, got %d", opts.historyLimit)
	}
	return nil
}

// applyFlagOverrides copies explicit flags over the loaded configuration.
func applyFlagOverrides(opts cliOptions, cfg *config.Config) {
	switch {
	case opts.collectionPath != "":
		cfg.CollectionPath = opts.collectionPath
	case len(opts.args) == 1:
		cfg.CollectionPath = opts.args[0]
	}
	if opts.output != "" {
		cfg.Output.File = opts.output
	}
	if opts.tsv != "" {
		cfg.Output.TSV = opts.tsv
	}
	if opts.markdown != "" {
		cfg.Output.Markdown = opts.markdown
	}
	if opts.dryRun {
		cfg.Output.DryRun = true
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/reqview/internal/cel"
	"github.com/oakwood-commons/reqview/internal/config"
	"github.com/oakwood-commons/reqview/internal/formatter"
	"github.com/oakwood-commons/reqview/pkg/loader"
	"github.com/oakwood-commons/reqview/pkg/logger"
	"github.com/oakwood-commons/reqview/pkg/request"
	"github.com/oakwood-commons/reqview/pkg/settings"
)

// errShowHelp is returned by readRequest when stdin is a terminal and no file
// was given.
var errShowHelp = errors.New("no input provided")

var (
	fields      []string
	overrides   []string
	output      string
	expression  string
	inputFormat string
	noValidate  bool
	showMarker  bool
	configFile  string
	debug       bool
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [request-file]",
	Short: "Inspect the fields derived from a completion request",
	Long: `reqview loads a completion request (JSON, YAML or TOML) and prints the
fields derived from it: the cursor's line, the completion start as byte and
codepoint offsets, and the query typed so far.`,
	Example: "\n  reqview request.json\n  reqview request.yaml -f query -f start_column\n  reqview request.yaml --set start_column=1 -o yaml\n  cat request.json | reqview -e '_.query.startsWith(\"pa\")'\n",
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.NewCliParams()
		if debug {
			run.MinLogLevel = settings.DebugLogLevel
		}
		run.ConfigPath = resolveConfigPath(configFile)
		run.Validate = !noValidate
		run.NoColor = noColor

		lgr := logger.Get(run.MinLogLevel)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		ctx := logger.WithLogger(cmd.Context(), lgr)
		cmd.SetContext(settings.IntoContext(ctx, run))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		lgr := logger.FromContext(cmd.Context())
		err := runView(cmd, args, *lgr)
		if errors.Is(err, errShowHelp) {
			return cmd.Help()
		}
		if err != nil {
			lgr.Error(err, "request view failed")
		}
		return err
	},
}

// runView loads the request and config, applies overrides and prints either
// the resolved fields or the value of --expr.
func runView(cmd *cobra.Command, args []string, lgr logr.Logger) error {
	run, ok := settings.FromContext(cmd.Context())
	if !ok {
		run = settings.NewCliParams()
	}

	cfg, err := config.Load(run.ConfigPath)
	if err != nil {
		return err
	}
	scanner, err := cfg.Scanner()
	if err != nil {
		return err
	}
	sets, err := parseOverrides(overrides)
	if err != nil {
		return err
	}

	req, err := readRequest(cmd, args, loader.Format(inputFormat))
	if err != nil {
		return err
	}
	path, _ := req.Lookup(request.KeyFilepath)
	reqLog := logger.ForRequest(&lgr, fmt.Sprint(path))

	view, err := request.NewView(req, run.Validate, request.WithScanner(scanner), request.WithLogger(reqLog))
	if err != nil {
		return err
	}
	if err := applyOverrides(view, sets, reqLog); err != nil {
		return err
	}

	format := output
	if format == "" {
		format = cfg.Output.Format
	}
	out := cmd.OutOrStdout()
	opts := tableOptions(out, run.NoColor)

	if expression != "" {
		eval, err := cel.NewEvaluator(scanner)
		if err != nil {
			return err
		}
		result, err := eval.EvaluateView(expression, view)
		if err != nil {
			return err
		}
		return writeValue(out, format, result)
	}

	names := fields
	if len(names) == 0 {
		names = cfg.Output.Fields
	}
	if len(names) == 0 {
		names = view.DerivedFields()
	}
	values, err := view.Resolve(names...)
	if err != nil {
		return err
	}
	rendered, err := formatter.Render(format, values, names, opts)
	if err != nil {
		return err
	}
	if showMarker && format == formatter.OutputTable {
		marker, err := renderMarker(view, opts.NoColor)
		if err != nil {
			return err
		}
		rendered += "\n" + marker
	}
	_, err = io.WriteString(out, rendered)
	return err
}

// readRequest decodes the request from the file argument, or from stdin when
// there is none.
func readRequest(cmd *cobra.Command, args []string, format loader.Format) (request.Request, error) {
	if len(args) == 1 {
		if format == loader.FormatAuto {
			return loader.LoadFile(args[0])
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		return loader.Load(data, format)
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return nil, errShowHelp
	}
	return loader.LoadReader(in, format)
}

// cliVersionString builds the version line for `reqview version` and
// --version.
func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reqview version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return err
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions available to --expr",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eval, err := cel.NewEvaluator(nil)
		if err != nil {
			return err
		}
		for _, fn := range eval.Functions() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), fn); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.Flags().StringSliceVarP(&fields, "field", "f", nil, "fields to print, repeatable or comma separated (default: every derived field)")
	rootCmd.Flags().StringArrayVar(&overrides, "set", nil, "override a settable field, key=value; applied in order (start_column, start_codepoint)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "output format: table|yaml|json|markdown|html (default from config, table)")
	rootCmd.Flags().StringVarP(&expression, "expr", "e", "", "CEL expression over the resolved fields bound to '_', e.g. '_.query.size() > 0'")
	rootCmd.Flags().StringVar(&inputFormat, "input-format", "", "request format: json|yaml|toml (default from extension or content)")
	rootCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip structural validation of the request")
	rootCmd.Flags().BoolVar(&showMarker, "marker", false, "print the cursor line with the completion start (^) and cursor (|) marked")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default $XDG_CONFIG_HOME/reqview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	// main prints the returned error; failures are also logged.
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(functionsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/shopctl/internal/commands"
	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/engine"
	"github.com/aidanlsb/shopctl/internal/schema"
	"github.com/aidanlsb/shopctl/internal/suggest"
	"github.com/aidanlsb/shopctl/internal/ui"
)

var (
	// Global flags
	storeName      string
	configPath     string
	schemaPathFlag string
	debugLogging   bool
	logLevelFlag   string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	display            *ui.DisplayContext
	eng                *engine.Engine
)

// Output streams, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "shopctl - A command line for the Shopify Admin API",
	Long: `shopctl turns resource/verb commands into Admin GraphQL requests.

Inputs are built from --input, --set and --set-json, checked against the
API's input types, and sent with a selection chosen by --view, --select and
--include. Use --dry-run to see the request without sending it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Resource commands parse their own tokens and call setup once the
		// global flags are extracted.
		if cmd.DisableFlagParsing {
			return nil
		}
		return setup()
	},
}

// setup applies the global flags: logging, .env, config and theme.
func setup() error {
	if err := setupLogging(debugLogging, logLevelFlag); err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("ignoring .env")
	}

	var err error
	cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
	if err != nil {
		return &codedError{code: ErrConfigInvalid, err: err}
	}
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
	display = ui.NewDisplayContext()
	return nil
}

// extractGlobalFlags applies root persistent flags found anywhere in args
// and returns the remaining tokens in order. Everything after "--" is left
// alone.
func extractGlobalFlags(args []string) ([]string, error) {
	fs := rootCmd.PersistentFlags()
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			rest = append(rest, args[i:]...)
			break
		}

		var f *pflag.Flag
		var val string
		hasVal := false
		switch {
		case strings.HasPrefix(tok, "--"):
			name := tok[2:]
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				name, val, hasVal = name[:eq], name[eq+1:], true
			}
			f = fs.Lookup(name)
		case len(tok) == 2 && tok[0] == '-':
			f = fs.ShorthandLookup(tok[1:])
		}
		if f == nil {
			rest = append(rest, tok)
			continue
		}

		if !hasVal {
			if f.Value.Type() == "bool" {
				val = "true"
			} else {
				if i+1 >= len(args) {
					return nil, &codedError{code: ErrInvalidInput, err: fmt.Errorf("flag needs an argument: %s", tok)}
				}
				i++
				val = args[i]
			}
		}
		if err := fs.Set(f.Name, val); err != nil {
			return nil, &codedError{code: ErrInvalidInput, err: fmt.Errorf("invalid value for %s: %w", tok, err)}
		}
	}
	return rest, nil
}

// Execute runs the CLI. Errors are reported before returning; the caller
// only picks the exit status.
func Execute() error {
	return ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the CLI with explicit arguments.
func ExecuteArgs(args []string) error {
	if err := registerResources(); err != nil {
		reportError(err)
		return err
	}
	if err := checkResource(args); err != nil {
		reportError(err)
		return err
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storeName, "store", "s", "", "Named store from config, or a myshopify domain")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $SHOPCTL_CONFIG or ~/.config/shopctl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&schemaPathFlag, "schema", "", "Schema field table (.yaml) or introspection result (.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// getConfigPath returns the resolved global config path.
func getConfigPath() string {
	if resolvedConfigPath == "" {
		return config.ResolveConfigPath(configPath)
	}
	return resolvedConfigPath
}

func getStatePath() string {
	return config.ResolveStatePath(getConfigPath(), getConfig())
}

func getDisplay() *ui.DisplayContext {
	if display == nil {
		display = ui.NewDisplayContext()
	}
	return display
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	// A missing file is an empty config, so `config init --config PATH`
	// works before PATH exists.
	loadedCfg, err := config.LoadOptional(resolvedPath)
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}

// getEngine builds the engine on first use: the embedded catalog plus the
// schema model from --schema, schema_path, or the bundled field table.
func getEngine() (*engine.Engine, error) {
	if eng != nil {
		return eng, nil
	}

	catalog, err := commands.Default()
	if err != nil {
		return nil, &codedError{code: ErrInternal, err: err}
	}

	path := schemaPathFlag
	if path == "" {
		path = getConfig().SchemaPath
	}
	var model *schema.Model
	if path != "" {
		model, err = schema.Load(path)
		if err != nil {
			return nil, &codedError{code: ErrSchemaInvalid, err: err}
		}
		log.Debug().Str("path", path).Msg("loaded schema")
	} else {
		model, err = schema.Default()
		if err != nil {
			return nil, &codedError{code: ErrInternal, err: err}
		}
	}

	eng = engine.New(catalog, model)
	return eng, nil
}

// checkResource rejects an unknown leading command with suggestions drawn
// from every command name.
func checkResource(args []string) error {
	fs := rootCmd.PersistentFlags()
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			return nil
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			if tok == "help" || strings.HasPrefix(tok, "__") || registered(tok) {
				return nil
			}
			names := []string{"help", "completion"}
			for _, c := range rootCmd.Commands() {
				names = append(names, c.Name())
			}
			return &engine.UnknownResourceError{
				Name:        tok,
				Suggestions: suggest.Suggest(tok, names, suggest.DefaultLimit),
			}
		}

		if tok == "--json" {
			jsonOutput = true
		}

		// Skip a global flag's separate value.
		var f *pflag.Flag
		if strings.HasPrefix(tok, "--") && !strings.Contains(tok, "=") {
			f = fs.Lookup(tok[2:])
		} else if len(tok) == 2 {
			f = fs.ShorthandLookup(tok[1:])
		}
		if f != nil && f.Value.Type() != "bool" {
			i++
		}
	}
	return nil
}

func registered(name string) bool {
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// registerResources adds one command per catalog resource. Free-form
// resources get their own handlers.
func registerResources() error {
	catalog, err := commands.Default()
	if err != nil {
		return &codedError{code: ErrInternal, err: fmt.Errorf("load command catalog: %w", err)}
	}
	for _, r := range catalog.Resources() {
		if registered(r.Name) {
			continue
		}
		r := r
		var run func(*cobra.Command, []string) error
		switch r.Name {
		case "types":
			run = runTypes
		case "graphql":
			run = runGraphQL
		default:
			run = func(cmd *cobra.Command, args []string) error {
				return runResource(cmd, r.Name, args)
			}
		}
		rootCmd.AddCommand(commands.GenerateCobraCommand(r, run))
	}
	return nil
}

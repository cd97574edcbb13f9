package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"
)

// RunFunc is the entry point of the application, called once options are ready.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App wraps a cobra root command whose options are loaded through viper.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	noConfig    bool
	args        cobra.PositionalArgs
	commands    []*cobra.Command

	configFile string
	viper      *viper.Viper
	cmd        *cobra.Command
}

// WithOptions sets the option tree populated before RunFunc is called.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function run by the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description shown by --help.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig disables the --config flag and config file lookup.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithValidArgs sets the positional argument validator of the root command.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any positional argument on the root command.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands adds subcommands. They share the root's persistent flags and see
// fully loaded options when they run.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// NewApp creates an App with the given name and short description.
func NewApp(name, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration registry the options were loaded from.
func (a *App) Viper() *viper.Viper {
	return a.viper
}

// Run executes the root command and exits with status 1 on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	if !a.noConfig {
		namedFlagSets.FlagSet("global").StringVarP(&a.configFile, "config", "c", "",
			fmt.Sprintf("Read configuration from this file (JSON or YAML). Defaults to ./config.json or /etc/%s/config.json when present.", a.name))
	}

	fs := cmd.PersistentFlags()
	for _, f := range namedFlagSets.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		return a.loadOptions(c.Flags())
	}
	if a.runFunc != nil {
		cmd.RunE = func(*cobra.Command, []string) error {
			return a.runFunc()
		}
	}
	cmd.AddCommand(a.commands...)

	a.cmd = cmd
}

// loadOptions merges defaults, config file, .env/environment and flags into the
// option tree, then completes and validates it.
func (a *App) loadOptions(fs *pflag.FlagSet) error {
	if a.options == nil {
		return nil
	}

	// A missing .env is the normal case on the device.
	_ = godotenv.Load()

	v := a.viper
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(a.name, "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if !a.noConfig {
		if err := a.readConfig(); err != nil {
			return err
		}
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := a.options.Complete(); err != nil {
		return err
	}

	return a.options.Validate()
}

func (a *App) readConfig() error {
	v := a.viper
	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("/etc", a.name))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && a.configFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	return nil
}

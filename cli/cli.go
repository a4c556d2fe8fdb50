// Package cli is the command line front end of a rigging environment.
package cli

import (
	"fmt"

	"github.com/slimloans/rigging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Options configures the root command
type Options struct {
	// Name of the binary (default "rigging")
	Name string

	// Version printed by version, -v and --version (default rigging.Version)
	Version string

	// Env the commands act on (default rigging.Default())
	Env *rigging.Environment
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "rigging"
	}

	if o.Version == "" {
		o.Version = rigging.Version
	}

	if o.Env == nil {
		o.Env = rigging.Default()
	}

	return o
}

// Execute builds the root command and runs it against os.Args
func Execute(options Options) error {
	return NewCommand(options).Execute()
}

// NewCommand returns the root command with every subcommand attached
func NewCommand(options Options) *cobra.Command {
	options = options.withDefaults()

	root := &cobra.Command{
		Use:           options.Name,
		Short:         "Boot, inspect and scaffold rigging environments",
		Version:       options.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.SetVersionTemplate(fmt.Sprintf("%s v{{.Version}}\n", options.Name))

	root.AddCommand(
		versionCommand(options),
		newCommand(options),
		consoleCommand(options),
		serverCommand(options),
	)

	return root
}

func versionCommand(options Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", options.Name, options.Version)
		},
	}
}

func consoleCommand(options Options) *cobra.Command {
	return &cobra.Command{
		Use:   "console [env]",
		Short: "Set up an environment and print what it resolved to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := options.Env.Setup(argEnv(args))
			if err != nil {
				return fmt.Errorf("unable to set up environment: %w", err)
			}

			out, err := yaml.Marshal(describe(e))
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func serverCommand(options Options) *cobra.Command {
	var opts rigging.RunOptions

	cmd := &cobra.Command{
		Use:   "server [env]",
		Short: "Set up an environment and run it on a network server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := options.Env.Setup(argEnv(args))
			if err != nil {
				return fmt.Errorf("unable to set up environment: %w", err)
			}

			return e.Run(opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "port to listen on (default server.port)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "host to bind to (default server.host)")
	cmd.Flags().StringVarP(&opts.Server, "server", "s", "", "network server to run (default server.default)")

	return cmd
}

func argEnv(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

type description struct {
	Env     string      `yaml:"env"`
	Config  interface{} `yaml:"config"`
	Mounts  []string    `yaml:"mounts"`
	Plugins []string    `yaml:"plugins"`
	Servers []string    `yaml:"servers"`
}

func describe(e *rigging.Environment) description {
	return description{
		Env:     e.Env(),
		Config:  e.Config(),
		Mounts:  e.Mounts(),
		Plugins: e.Plugins().Names(),
		Servers: e.Servers(),
	}
}

// Package commands implements the cbclient command tree.
package commands

import (
	"fmt"

	"github.com/kanoloa/cbclient/internal/config"
	"github.com/kanoloa/cbclient/pkg/client"
	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/kanoloa/cbclient/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	v      *viper.Viper
	client *client.Client
	logger zerolog.Logger
}

// NewRootCommand creates the cbclient root command with all subcommands.
func NewRootCommand(version, commit, date string) *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "cbclient",
		Short: "Codebeamer REST API client",
		Long: `A command-line interface for the Codebeamer REST API.

Connection settings are read from the environment:
  SERVER_URL    REST API root, e.g. https://cb.example.com/cb/api/v3 (required)
  USERNAME      user name for Basic authentication
  PASSWORD      password for Basic authentication
  PROXY         proxy URL; HTTP_PROXY/HTTPS_PROXY apply otherwise
  LOG_LEVEL     debug, info, warn or error (default info)
  LOG_PRETTY    human-readable logs when true
  HTTP_TIMEOUT  per-request timeout (default 60s)
  TRACING       OpenTelemetry transport instrumentation when true

Exit status: 0 on success, 2 when the input is rejected before sending,
3 on an unexpected or empty response, 4 on a transport failure, 1 otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.v.GetBool("dump-metrics") {
				return nil
			}
			return metrics.WriteText(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringP("output", "o", OutputFormatTable, "output format (table, json, yaml)")
	cmd.PersistentFlags().Bool("dump-metrics", false, "write client metrics to stderr after the command")

	_ = a.v.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	_ = a.v.BindPFlag("dump-metrics", cmd.PersistentFlags().Lookup("dump-metrics"))
	a.v.SetEnvPrefix("CBCLIENT")
	a.v.AutomaticEnv()

	cmd.AddCommand(newVersionCommand(version, commit, date))
	cmd.AddCommand(newProjectsCommand(a))
	cmd.AddCommand(newItemsCommand(a))
	cmd.AddCommand(newQueryCommand(a))
	cmd.AddCommand(newCreateCommand(a))
	cmd.AddCommand(newUpdateCommand(a))
	cmd.AddCommand(newBulkUpdateCommand(a))
	cmd.AddCommand(newDeleteCommand(a))
	cmd.AddCommand(newAddChildCommand(a))
	cmd.AddCommand(newBaselineCommand(a))

	return cmd
}

// Exit statuses by failure class.
const (
	ExitFailure      = 1
	ExitPrecondition = 2
	ExitResponse     = 3
	ExitTransport    = 4
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch client.ClassOf(err) {
	case client.ErrorClassPrecondition:
		return ExitPrecondition
	case client.ErrorClassShape, client.ErrorClassEmpty:
		return ExitResponse
	case client.ErrorClassTransport:
		return ExitTransport
	default:
		return ExitFailure
	}
}

// connect loads the environment, sets up logging and creates the client.
func (a *app) connect(cmd *cobra.Command) (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	env, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := env.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	base := logging.Setup(logCfg)
	a.logger = logging.WithComponent(base, logging.ComponentCLI)

	c, err := client.New(env.ClientConfig(&base))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	a.logger.Debug().
		Str("server_url", env.ServerURL).
		Bool("authenticated", c.Connection().Authenticated()).
		Msg("Client ready")

	a.client = c
	return c, nil
}

func (a *app) output() string {
	return a.v.GetString("output")
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cbclient %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}

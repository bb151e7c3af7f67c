package cli

import (
	"bufio"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	serverURL  string
	timeout    time.Duration
	tokenFile  string
}

// NewRootCmd creates the root command for the authkeeper CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	app := &App{}

	cmd := &cobra.Command{
		Use:           "authkeeper",
		Short:         "authkeeper - register, log in and fetch jokes",
		Long:          `Command-line client for the authkeeper credential service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd, opts)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "JSON config file path")
	pf.StringVar(&opts.serverURL, "server", "", "base URL of the authkeeper HTTP API")
	pf.DurationVar(&opts.timeout, "timeout", 0, "request timeout")
	pf.StringVar(&opts.tokenFile, "token-file", "", "where login stores the access token")

	// Add subcommands
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newJokesCmd(app))

	return cmd
}

func (a *App) init(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = opts.serverURL
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
	if flags.Changed("token-file") {
		cfg.TokenFile = opts.tokenFile
	}

	api, err := newAPI(cfg)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	a.config = cfg
	a.api = api
	a.reader = bufio.NewReader(in)
	a.out = cmd.OutOrStdout()
	a.interactive = in == os.Stdin && isTerminal(int(os.Stdin.Fd()))
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJokesCmd(a *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "jokes",
		Short: "Fetch the protected jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Jokes(cmd, token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (defaults to the stored one)")

	return cmd
}

func (a *App) Jokes(cmd *cobra.Command, token string) error {
	if token == "" {
		var err error
		if token, err = a.loadToken(); err != nil {
			return err
		}
	}

	jokes, err := a.api.Jokes(cmd.Context(), token)
	if err != nil {
		return err
	}

	for _, j := range jokes {
		fmt.Fprintf(a.out, "- %s\n", j.Joke)
	}
	return nil
}

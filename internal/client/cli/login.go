package cli

import (
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *App) *cobra.Command {
	var printToken bool

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the access token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Login(cmd, args, printToken)
		},
	}
	cmd.Flags().BoolVar(&printToken, "print-token", false, "also print the token")

	return cmd
}

func (a *App) Login(cmd *cobra.Command, args []string, printToken bool) error {
	userName, err := a.readUserName(args)
	if err != nil {
		return err
	}

	password, err := a.readPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(cmd.Context(), userName, password)
	if err != nil {
		return err
	}

	if err := a.saveToken(res.Token); err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	if printToken || a.config.TokenFile == "" {
		fmt.Fprintln(a.out, res.Token)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Register(cmd, args)
		},
	}
}

func (a *App) Register(cmd *cobra.Command, args []string) error {
	userName, err := a.readUserName(args)
	if err != nil {
		return err
	}

	password, err := a.readPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Register(cmd.Context(), userName, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

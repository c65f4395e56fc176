package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "diagnote",
		Short:         "DiagNote portal client for doctors, patients and lab technicians",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.AddCommand(loginCmd(a))
	root.AddCommand(registerCmd(a))
	root.AddCommand(logoutCmd(a))
	root.AddCommand(whoamiCmd(a))
	root.AddCommand(sessionCmd(a))
	root.AddCommand(doctorCmd(a))
	root.AddCommand(patientCmd(a))
	root.AddCommand(labtechCmd(a))
	return root
}

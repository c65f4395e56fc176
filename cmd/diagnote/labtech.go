package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/akith22/DiagNote-sub000/internal/domain/identity"
	"github.com/akith22/DiagNote-sub000/internal/domain/lab"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

func labtechCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labtech",
		Short: "Lab technician workflows",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			_, err := a.requireRole(cmd, identity.RoleLabTech)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "requests",
		Short: "List assigned lab requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := lab.NewRequests(a.api).Assigned(cmd.Context())
			if err != nil {
				return err
			}
			printLabRequests(cmd, list)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete <lab-request-id>",
		Short: "Mark a lab request as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "lab request")
			if err != nil {
				return err
			}
			req, err := findAssigned(cmd, a, id)
			if err != nil {
				return err
			}
			updated, err := lab.NewRequests(a.api).UpdateStatus(cmd.Context(), *req, lab.StatusCompleted)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lab request %d is now %s\n", updated.ID, updated.Status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <lab-request-id> <file>",
		Short: "Upload the report file for a lab request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "lab request")
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return apiclient.Validationf("cannot open %s", args[1])
			}
			defer f.Close()

			report, err := lab.NewRequests(a.api).UploadReport(cmd.Context(), id, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %s uploaded for lab request %d\n", orDash(report.ReportFile), id)
			return nil
		},
	})
	return cmd
}

func findAssigned(cmd *cobra.Command, a *app, id int64) (*lab.LabRequest, error) {
	list, err := lab.NewRequests(a.api).Assigned(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, apiclient.Validationf("lab request %d is not assigned to you", id)
}

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/akith22/DiagNote-sub000/internal/domain/appointment"
	"github.com/akith22/DiagNote-sub000/internal/domain/doctor"
	"github.com/akith22/DiagNote-sub000/internal/domain/identity"
	"github.com/akith22/DiagNote-sub000/internal/domain/lab"
	"github.com/akith22/DiagNote-sub000/internal/domain/prescription"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apiclient.Validationf("invalid %s id %q", what, s)
	}
	return id, nil
}

func doctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Doctor workflows",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			_, err := a.requireRole(cmd, identity.RoleDoctor)
			return err
		},
	}
	cmd.AddCommand(doctorProfileCmd(a))
	cmd.AddCommand(doctorAppointmentsCmd(a))
	cmd.AddCommand(doctorLabsCmd(a))
	cmd.AddCommand(doctorPrescriptionsCmd(a))
	return cmd
}

// ---- profile ----

func doctorProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the doctor profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := doctor.NewService(a.api).Get(cmd.Context())
			if errors.Is(err, doctor.ErrNoProfile) {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile yet, create one with `diagnote doctor profile set`")
				return nil
			}
			if err != nil {
				return err
			}
			printDoctorProfile(cmd, p)
			return nil
		},
	}

	var p doctor.Profile
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update the doctor profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := doctor.NewService(a.api).Save(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile saved")
			printDoctorProfile(cmd, saved)
			return nil
		},
	}
	set.Flags().StringVar(&p.Specialization, "specialization", "", "specialization")
	set.Flags().StringVar(&p.LicenseNumber, "license", "", "license number")
	set.Flags().StringVar(&p.AvailableTimes, "availability", "", `comma-separated "Day HH:MM-HH:MM" windows`)
	cmd.AddCommand(set)
	return cmd
}

func printDoctorProfile(cmd *cobra.Command, p *doctor.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "specialization: %s\n", orDash(p.Specialization))
	fmt.Fprintf(out, "license:        %s\n", orDash(p.LicenseNumber))
	fmt.Fprintf(out, "availability:   %s\n", orDash(p.AvailableTimes))
	fmt.Fprintf(out, "complete:       %t\n", p.ProfileComplete)
}

// ---- appointments ----

func doctorAppointmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appts"},
		Short:   "List appointments and the actions offered on each",
		RunE: func(cmd *cobra.Command, args []string) error {
			board := appointment.NewBoard(a.api, a.logger)
			if err := board.Refresh(cmd.Context()); err != nil {
				return err
			}
			printBoard(cmd, board.Rows())
			return nil
		},
	}
	for _, action := range []appointment.Action{appointment.ActionAccept, appointment.ActionDecline, appointment.ActionCancel} {
		cmd.AddCommand(transitionCmd(a, action))
	}
	return cmd
}

var transitionHelp = map[appointment.Action]string{
	appointment.ActionAccept:  "Accept a pending or declined appointment",
	appointment.ActionDecline: "Decline a pending appointment",
	appointment.ActionCancel:  "Cancel an accepted appointment",
}

func transitionCmd(a *app, action appointment.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <appointment-id>",
		Short: transitionHelp[action],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}
			board := appointment.NewBoard(a.api, a.logger)
			if err := board.Refresh(cmd.Context()); err != nil {
				return err
			}
			updated, err := board.Transition(cmd.Context(), id, action)
			if errors.Is(err, appointment.ErrNotOnBoard) {
				fmt.Fprintf(cmd.OutOrStdout(), "Appointment %d was updated and is no longer listed\n", id)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appointment %d is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func printBoard(cmd *cobra.Command, rows []appointment.Appointment) {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No appointments")
		return
	}
	tw := newTable(cmd.OutOrStdout(), "ID", "PATIENT", "DATE", "STATUS", "ACTIONS")
	for _, r := range rows {
		row(tw, r.ID, orDash(r.PatientName), displayDate(r.Date), orDash(r.Status), actionNames(appointment.Actions(r.Status)))
	}
	tw.Flush()
}

// ---- lab requests ----

func doctorLabsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labs <appointment-id>",
		Short: "List lab requests raised for an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}
			list, err := lab.NewRequests(a.api).ForAppointment(cmd.Context(), id)
			if err != nil {
				return err
			}
			printLabRequests(cmd, list)
			return nil
		},
	}

	var tests []string
	request := &cobra.Command{
		Use:   "request <appointment-id>",
		Short: "Request one or more lab tests for an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}
			form := lab.NewRequestForm(a.api,
				lab.WithConcurrency(a.cfg.LabBatchConcurrency),
				lab.WithOnCreated(func(apptID int64, created []lab.LabRequest) {
					a.logger.Info().Int64("appointment_id", apptID).Int("count", len(created)).Msg("lab requests created")
				}),
			)
			form.Fill(tests)
			created, err := form.Submit(cmd.Context(), id)

			var batchErr *lab.BatchError
			if errors.As(err, &batchErr) {
				out := cmd.OutOrStdout()
				for _, r := range batchErr.Results {
					if r.Err != nil {
						fmt.Fprintf(out, "failed   %s: %s\n", r.TestType, apiclient.Message(r.Err))
						continue
					}
					fmt.Fprintf(out, "created  %s (#%d)\n", r.TestType, r.Request.ID)
				}
				return apiclient.Validationf("%d lab request(s) failed, retry with: %s", len(batchErr.Failed()), quoteRows(form.Rows()))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lab requests submitted successfully (%d)\n", len(created))
			return nil
		},
	}
	request.Flags().StringArrayVarP(&tests, "test", "t", nil, "test type, repeat for several")
	cmd.AddCommand(request)
	return cmd
}

func quoteRows(rows []string) string {
	s := ""
	for i, r := range rows {
		if i > 0 {
			s += " "
		}
		s += "--test " + strconv.Quote(r)
	}
	return s
}

func printLabRequests(cmd *cobra.Command, list []lab.LabRequest) {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No lab requests")
		return
	}
	tw := newTable(cmd.OutOrStdout(), "ID", "TEST", "APPOINTMENT", "PATIENT", "STATUS")
	for _, r := range list {
		row(tw, r.ID, r.TestType, r.AppointmentID, orDash(r.PatientName), r.Status)
	}
	tw.Flush()
}

// ---- prescriptions ----

func doctorPrescriptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prescription",
		Aliases: []string{"rx"},
		Short:   "Write and manage prescriptions",
	}

	var notes string
	write := &cobra.Command{
		Use:   "write <appointment-id>",
		Short: "Write a prescription for an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}
			p, err := prescription.NewService(a.api).Create(cmd.Context(), id, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prescription %d saved\n", p.ID)
			return nil
		},
	}
	write.Flags().StringVar(&notes, "notes", "", "prescription notes")

	show := &cobra.Command{
		Use:   "show <prescription-id>",
		Short: "Show a prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "prescription")
			if err != nil {
				return err
			}
			p, err := prescription.NewService(a.api).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printPrescription(cmd, p)
			return nil
		},
	}

	var newNotes string
	edit := &cobra.Command{
		Use:   "edit <prescription-id>",
		Short: "Replace the notes of a prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "prescription")
			if err != nil {
				return err
			}
			p, err := prescription.NewService(a.api).Update(cmd.Context(), id, newNotes)
			if err != nil {
				return err
			}
			printPrescription(cmd, p)
			return nil
		},
	}
	edit.Flags().StringVar(&newNotes, "notes", "", "replacement notes")

	del := &cobra.Command{
		Use:   "delete <prescription-id>",
		Short: "Delete a prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "prescription")
			if err != nil {
				return err
			}
			if err := prescription.NewService(a.api).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prescription %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(write, show, edit, del)
	return cmd
}

func printPrescription(cmd *cobra.Command, p *prescription.Prescription) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "prescription %d (appointment %d)\n", p.ID, p.AppointmentID)
	fmt.Fprintf(out, "patient: %s\n", orDash(p.PatientName))
	fmt.Fprintf(out, "issued:  %s\n", orDash(p.DateIssued))
	fmt.Fprintf(out, "notes:   %s\n", p.Notes)
}

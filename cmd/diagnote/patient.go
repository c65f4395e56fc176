package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akith22/DiagNote-sub000/internal/domain/appointment"
	"github.com/akith22/DiagNote-sub000/internal/domain/availability"
	"github.com/akith22/DiagNote-sub000/internal/domain/identity"
	"github.com/akith22/DiagNote-sub000/internal/domain/lab"
	"github.com/akith22/DiagNote-sub000/internal/domain/patient"
	"github.com/akith22/DiagNote-sub000/internal/domain/prescription"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
	"github.com/akith22/DiagNote-sub000/internal/platform/preview"
)

func patientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Patient workflows",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			_, err := a.requireRole(cmd, identity.RolePatient)
			return err
		},
	}
	cmd.AddCommand(patientProfileCmd(a))
	cmd.AddCommand(doctorsCmd(a))
	cmd.AddCommand(availabilityCmd(a))
	cmd.AddCommand(bookCmd(a))
	cmd.AddCommand(myAppointmentsCmd(a))
	cmd.AddCommand(reportsCmd(a))
	cmd.AddCommand(myPrescriptionsCmd(a))
	return cmd
}

// ---- profile ----

func patientProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the patient profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := patient.NewService(a.api).Get(cmd.Context())
			if err != nil {
				return err
			}
			printPatientProfile(cmd, p)
			return nil
		},
	}

	var p patient.Profile
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the patient profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := patient.NewService(a.api).Update(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile saved")
			printPatientProfile(cmd, saved)
			return nil
		},
	}
	set.Flags().StringVar(&p.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	set.Flags().StringVar(&p.Gender, "gender", "", "gender")
	set.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	set.Flags().StringVar(&p.Address, "address", "", "postal address")
	cmd.AddCommand(set)
	return cmd
}

func printPatientProfile(cmd *cobra.Command, p *patient.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:    %s\n", orDash(p.Name))
	fmt.Fprintf(out, "dob:     %s\n", orDash(p.DateOfBirth))
	fmt.Fprintf(out, "gender:  %s\n", orDash(p.Gender))
	fmt.Fprintf(out, "phone:   %s\n", orDash(p.Phone))
	fmt.Fprintf(out, "address: %s\n", orDash(p.Address))
}

// ---- doctors & booking ----

func doctorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List doctors open for booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := appointment.NewBooking(a.api).Doctors(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No doctors available")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "SPECIALIZATION", "AVAILABILITY")
			for _, d := range list {
				row(tw, d.DoctorID, d.Name, orDash(d.Specialization), orDash(d.AvailableTimes))
			}
			tw.Flush()
			return nil
		},
	}
}

func availabilityCmd(a *app) *cobra.Command {
	var date string
	var step time.Duration
	cmd := &cobra.Command{
		Use:   "availability <doctor-id>",
		Short: "Show the bookable times of a doctor on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "doctor")
			if err != nil {
				return err
			}
			d, err := appointment.NewBooking(a.api).FindDoctor(cmd.Context(), id)
			if err != nil {
				return err
			}
			day, err := time.ParseInLocation("2006-01-02", date, time.Local)
			if err != nil {
				return apiclient.Validation("date must be YYYY-MM-DD")
			}

			filter := availability.ParseList(d.AvailableTimes)
			out := cmd.OutOrStdout()
			if !filter.IsDateSelectable(day) {
				fmt.Fprintf(out, "%s does not see patients on %s\n", d.Name, day.Weekday())
				return nil
			}
			times := filter.SelectableTimes(day, step)
			labels := make([]string, len(times))
			for i, t := range times {
				labels[i] = t.Format("15:04")
			}
			fmt.Fprintf(out, "%s on %s: %s\n", d.Name, day.Format("Mon 2006-01-02"), strings.Join(labels, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "day to inspect, YYYY-MM-DD")
	cmd.Flags().DurationVar(&step, "step", 30*time.Minute, "slot granularity")
	return cmd
}

func bookCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "book <doctor-id>",
		Short: "Book an appointment with a doctor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "doctor")
			if err != nil {
				return err
			}
			when, err := appointment.ParseDate(at, time.Local)
			if err != nil {
				return apiclient.Validation("--at must look like 2006-01-02T15:04")
			}
			booking := appointment.NewBooking(a.api)
			d, err := booking.FindDoctor(cmd.Context(), id)
			if err != nil {
				return err
			}
			created, err := booking.Book(cmd.Context(), *d, when)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appointment %d with %s on %s is %s\n",
				created.ID, d.Name, displayDate(created.Date), orDash(created.Status))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "appointment time, e.g. 2024-01-15T09:30")
	cmd.MarkFlagRequired("at")
	return cmd
}

func myAppointmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appts"},
		Short:   "List my appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := appointment.NewBooking(a.api).Mine(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No appointments")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "DOCTOR", "DATE", "STATUS")
			for _, r := range list {
				row(tw, r.ID, orDash(r.DoctorName), displayDate(r.Date), orDash(r.Status))
			}
			tw.Flush()
			return nil
		},
	}
}

// ---- lab reports ----

func reportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List my lab reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := lab.NewReports(a.api).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No lab reports")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "FILE", "FORMAT", "ISSUED", "UPLOADED BY")
			for _, r := range list {
				row(tw, r.ID, r.ReportFile, orDash(r.FileFormat), orDash(r.DateIssued), orDash(r.UploadedBy))
			}
			tw.Flush()
			return nil
		},
	}

	var wait bool
	view := &cobra.Command{
		Use:   "view <report-id>",
		Short: "Open a lab report in the browser through a local preview link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			report, err := lab.NewReports(a.api).Find(cmd.Context(), id)
			if err != nil {
				return err
			}

			srv := preview.New(a.cfg.PreviewAddr, preview.WithLogger(a.logger))
			if err := srv.Start(); err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()

			viewer := lab.NewViewer(a.api, srv)
			defer viewer.Close()
			p, err := viewer.Open(cmd.Context(), *report)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if p.Message != "" {
				fmt.Fprintln(out, p.Message)
			}
			fmt.Fprintf(out, "%s (%s, %d bytes): %s\n", p.FileName, p.Kind, p.Size, p.URL)
			if !wait {
				return nil
			}
			fmt.Fprintln(out, "Press Ctrl-C to close the preview")
			<-cmd.Context().Done()
			return nil
		},
	}
	view.Flags().BoolVar(&wait, "wait", true, "keep the preview link alive until interrupted")
	cmd.AddCommand(view)
	return cmd
}

// ---- prescriptions ----

func myPrescriptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "prescriptions",
		Aliases: []string{"rx"},
		Short:   "List my prescriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := prescription.NewService(a.api).Mine(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No prescriptions")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "APPOINTMENT", "ISSUED", "NOTES")
			for _, p := range list {
				row(tw, p.ID, p.AppointmentID, orDash(p.DateIssued), p.Notes)
			}
			tw.Flush()
			return nil
		},
	}
}

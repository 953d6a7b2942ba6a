package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/models"
)

// NewReservationsCmd creates the reservations command
func NewReservationsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"ls"},
		Short:   "List and manage your reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListReservations(cmd.Context(), g.options()...)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancelReservation(cmd.Context(), args[0], g.options()...)
		},
	})

	var start, end string
	edit := &cobra.Command{
		Use:   "edit <reservation-id>",
		Short: "Move a reservation to new times",
		Long:  "Move a reservation to new times. Times are local, in the form \"2006-01-02 15:04\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditReservation(cmd.Context(), args[0], start, end, g.options()...)
		},
	}
	edit.Flags().StringVar(&start, "start", "", "New start time (required)")
	edit.Flags().StringVar(&end, "end", "", "New end time (required)")
	_ = edit.MarkFlagRequired("start")
	_ = edit.MarkFlagRequired("end")
	cmd.AddCommand(edit)

	var output string
	qr := &cobra.Command{
		Use:   "qr <reservation-id>",
		Short: "Fetch the check-in QR code of a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReservationQR(cmd.Context(), args[0], output, g.options()...)
		},
	}
	qr.Flags().StringVarP(&output, "output", "o", "", "Write the image to this file instead of printing its URL")
	cmd.AddCommand(qr)

	return cmd
}

func runListReservations(ctx context.Context, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, err := s.requireUser(ctx); err != nil {
		return err
	}

	var reservations []models.Reservation
	if err := getData(ctx, s, "/reservation/", &reservations); err != nil {
		return fmt.Errorf("failed to list reservations: %w", err)
	}

	if len(reservations) == 0 {
		fmt.Fprintln(o.out, "No reservations found.")
		fmt.Fprintln(o.out, "\nBrowse rooms with: roomly spaces")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROOM\tSTART\tEND\tPEOPLE")
	fmt.Fprintln(w, "──\t────\t─────\t───\t──────")
	for _, r := range reservations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			r.ID,
			r.Room.Name,
			formatTime(r.StartTime),
			formatTime(r.EndTime),
			r.Capacity,
		)
	}
	return w.Flush()
}

func runCancelReservation(ctx context.Context, id string, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, err := s.requireUser(ctx); err != nil {
		return err
	}

	env, err := s.client.Delete(ctx, "/reservation/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	if !env.OK() || !env.Success {
		return fmt.Errorf("failed to cancel reservation: %s", env.MessageOr(fmt.Sprintf("status %d", env.StatusCode)))
	}

	fmt.Fprintf(o.out, "✓ Reservation %s cancelled\n", id)
	return nil
}

func runEditReservation(ctx context.Context, id, startText, endText string, opts ...Option) error {
	start, err := time.ParseInLocation(timeLayout, strings.TrimSpace(startText), time.Local)
	if err != nil {
		return fmt.Errorf("invalid start time %q (use %q)", startText, timeLayout)
	}
	end, err := time.ParseInLocation(timeLayout, strings.TrimSpace(endText), time.Local)
	if err != nil {
		return fmt.Errorf("invalid end time %q (use %q)", endText, timeLayout)
	}
	if !end.After(start) {
		return fmt.Errorf("end time must be after start time")
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, err := s.requireUser(ctx); err != nil {
		return err
	}

	update := models.ReservationUpdate{StartTime: start.UTC(), EndTime: end.UTC()}
	env, err := s.client.Put(ctx, "/reservation/"+url.PathEscape(id), update)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if !env.OK() || !env.Success {
		return fmt.Errorf("failed to update reservation: %s", env.MessageOr("Failed to update reservation"))
	}

	fmt.Fprintf(o.out, "✓ Reservation %s moved to %s - %s\n", id, formatTime(start), formatTime(end))
	return nil
}

func runReservationQR(ctx context.Context, id, output string, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, err := s.requireUser(ctx); err != nil {
		return err
	}

	var qr models.ReservationQR
	if err := getData(ctx, s, "/reservation/"+url.PathEscape(id)+"/qr", &qr); err != nil {
		return fmt.Errorf("failed to fetch QR code: %w", err)
	}
	if qr.QRCode == "" {
		return fmt.Errorf("no QR code available for reservation %s", id)
	}

	if output == "" {
		fmt.Fprintln(o.out, qr.QRCode)
		return nil
	}

	data, err := decodeDataURL(qr.QRCode)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	fmt.Fprintf(o.out, "✓ QR code saved to %s\n", output)
	return nil
}

// decodeDataURL returns the payload of a base64 data: URL
func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasPrefix(raw, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("QR code is not an inline image; open it at %s", raw)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode QR code: %w", err)
	}
	return data, nil
}

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

package commands

import (
	"context"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/models"
)

// NewSpacesCmd creates the spaces command
func NewSpacesCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "spaces [space-id]",
		Short: "List spaces, or the rooms of one space",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runListRooms(cmd.Context(), args[0], g.options()...)
			}
			return runListSpaces(cmd.Context(), g.options()...)
		},
	}
}

func runListSpaces(ctx context.Context, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	var spaces []models.Space
	if err := getData(ctx, newCLISession(o), "/spaces", &spaces); err != nil {
		return fmt.Errorf("failed to list spaces: %w", err)
	}

	if len(spaces) == 0 {
		fmt.Fprintln(o.out, "No spaces found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tHOURS")
	for _, sp := range spaces {
		hours := "-"
		if sp.OpenTime != "" {
			hours = sp.OpenTime + "-" + sp.CloseTime
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sp.ID, sp.Name, sp.Address, hours)
	}
	return w.Flush()
}

func runListRooms(ctx context.Context, spaceID string, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	var rooms []models.Room
	if err := getData(ctx, newCLISession(o), "/spaces/"+url.PathEscape(spaceID)+"/rooms", &rooms); err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Fprintln(o.out, "No rooms found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCAPACITY")
	for _, r := range rooms {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.ID, r.Name, r.Capacity)
	}
	return w.Flush()
}

// getData fetches a resource and decodes its data, treating an empty
// payload as no results
func getData(ctx context.Context, s *cliSession, path string, v any) error {
	env, err := s.client.Get(ctx, path)
	if err != nil {
		return err
	}
	if !env.OK() || !env.Success {
		return fmt.Errorf("%s", env.MessageOr(fmt.Sprintf("status %d", env.StatusCode)))
	}
	if !env.HasData() {
		return nil
	}
	return env.Decode(v)
}

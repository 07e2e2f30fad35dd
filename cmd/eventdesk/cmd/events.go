package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/markusmobius/go-dateparser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds "events get" with many ids.
const maxConcurrentFetches = 4

func newEventsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		Short:   "List and manage events",
	}
	cmd.AddCommand(
		newEventsListCommand(c),
		newEventsGetCommand(c),
		newEventsCreateCommand(c),
		newEventsUpdateCommand(c),
		newEventsDeleteCommand(c),
	)
	return cmd
}

func newEventsListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			list, err := c.events.List(cmd.Context())
			if err != nil {
				return err
			}
			events.SortByDateDesc(list)

			if c.opts.output != formatTable {
				return render(cmd.OutOrStdout(), c.opts.output, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events.")
				return nil
			}
			writeEventTable(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func newEventsGetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>...",
		Short: "Show one or more events",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			// Results are written by index so output follows argument order.
			found := make([]events.Event, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxConcurrentFetches)
			for i, id := range args {
				g.Go(func() error {
					ev, err := c.events.Get(ctx, id)
					if err != nil {
						return err
					}
					found[i] = *ev
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.opts.output != formatTable {
				if len(found) == 1 {
					return render(out, c.opts.output, found[0])
				}
				return render(out, c.opts.output, found)
			}
			for i, ev := range found {
				if i > 0 {
					fmt.Fprintln(out)
				}
				writeEventDetail(out, ev)
			}
			return nil
		},
	}
}

type eventFlags struct {
	name        string
	description string
	date        string
	location    string
	max         int
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "event name")
	cmd.Flags().StringVar(&f.description, "description", "", "event description")
	cmd.Flags().StringVar(&f.date, "date", "", `event date (RFC 3339, or text such as "next friday 18:00")`)
	cmd.Flags().StringVar(&f.location, "location", "", "event location")
	cmd.Flags().IntVar(&f.max, "max", 0, "maximum number of participants")
}

func newEventsCreateCommand(c *cli) *cobra.Command {
	var f eventFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			date, err := parseEventDate(f.date, time.Now())
			if err != nil {
				return err
			}

			ev, err := c.events.Create(cmd.Context(), events.CreateInput{
				Name:            f.name,
				Description:     f.description,
				Date:            date,
				Location:        f.location,
				MaxParticipants: f.max,
			})
			if err != nil {
				return err
			}
			if c.opts.output != formatTable {
				return render(cmd.OutOrStdout(), c.opts.output, ev)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created event %s\n", ev.ID)
			return nil
		},
	}

	f.register(cmd)
	for _, name := range []string{"name", "description", "date", "location", "max"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newEventsUpdateCommand(c *cli) *cobra.Command {
	var f eventFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change some fields of an event",
		Long:  `Change some fields of an event. Only the flags you pass are sent.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			var input events.UpdateInput
			flags := cmd.Flags()
			if flags.Changed("name") {
				input.Name = &f.name
			}
			if flags.Changed("description") {
				input.Description = &f.description
			}
			if flags.Changed("date") {
				date, err := parseEventDate(f.date, time.Now())
				if err != nil {
					return err
				}
				input.Date = &date
			}
			if flags.Changed("location") {
				input.Location = &f.location
			}
			if flags.Changed("max") {
				input.MaxParticipants = &f.max
			}

			ev, err := c.events.Update(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			if c.opts.output != formatTable {
				return render(cmd.OutOrStdout(), c.opts.output, ev)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated event %s\n", ev.ID)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newEventsDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.events.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %s\n", args[0])
			return nil
		},
	}
}

// parseEventDate accepts RFC 3339 as is and falls back to natural-language
// dates, resolved towards the future from now. The result is RFC 3339.
func parseEventDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.Format(time.RFC3339), nil
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Future,
	}, input)
	if err != nil || parsed.Time.IsZero() {
		return "", fmt.Errorf("cannot understand date %q", input)
	}
	return parsed.Time.Format(time.RFC3339), nil
}

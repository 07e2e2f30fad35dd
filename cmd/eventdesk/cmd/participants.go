package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/spf13/cobra"
)

func newParticipantsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participants",
		Aliases: []string{"participant"},
		Short:   "Manage who is registered for an event",
	}
	cmd.AddCommand(
		newParticipantsListCommand(c),
		newParticipantsAddCommand(c),
		newParticipantsRemoveCommand(c),
	)
	return cmd
}

func newParticipantsListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list <event-id>",
		Short: "List the participants of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			ev, err := c.events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.opts.output != formatTable {
				return render(out, c.opts.output, ev.Participants)
			}
			fmt.Fprintf(out, "%d of %d seats taken\n\n", len(ev.Participants), ev.MaxParticipants)
			if len(ev.Participants) > 0 {
				writeParticipantTable(out, ev.Participants)
			}
			return nil
		},
	}
}

func newParticipantsAddCommand(c *cli) *cobra.Command {
	var input events.ParticipantInput

	cmd := &cobra.Command{
		Use:   "add <event-id>",
		Short: "Register a participant for an event",
		Long: `Register a participant for an event.

The event is fetched first; a full event or an already registered email is
refused without contacting the service again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			ev, err := c.events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := c.events.AddParticipant(cmd.Context(), ev, input)
			if err != nil {
				return err
			}
			if c.opts.output != formatTable {
				return render(cmd.OutOrStdout(), c.opts.output, p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s for %s\n", input.Email, ev.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.FullName, "name", "", "participant full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "participant email")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "participant phone (optional)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newParticipantsRemoveCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <event-id> <email>",
		Aliases: []string{"rm"},
		Short:   "Remove a participant from an event",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.events.RemoveParticipant(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

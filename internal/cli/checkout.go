package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout EQUIPMENT PERSON",
		Short: "Check equipment out to a person for one day",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			c, err := svc.Checkout(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("checkout %s: %w", args[0], err)
			}
			return a.emit(cmd, c, func(w io.Writer) {
				fmt.Fprintf(w, "Checked out %s to %s, due %s\n", c.EquipmentID, c.PersonID, formatTime(c.DueAt))
			})
		}),
	}
}

func newCheckinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin EQUIPMENT",
		Short: "Return checked-out equipment",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			c, err := svc.Checkin(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("checkin %s: %w", args[0], err)
			}
			return a.emit(cmd, statusMessage{Status: "checked_in", ID: c.ID}, func(w io.Writer) {
				fmt.Fprintf(w, "Checked in %s from %s\n", c.EquipmentID, c.PersonID)
			})
		}),
	}
}

func newTransferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer EQUIPMENT PERSON",
		Short: "Hand checked-out equipment directly to another person",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			c, err := svc.Transfer(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("transfer %s: %w", args[0], err)
			}
			return a.emit(cmd, c, func(w io.Writer) {
				from := "-"
				if c.HandoffFrom != nil {
					from = *c.HandoffFrom
				}
				fmt.Fprintf(w, "Transferred %s from %s to %s, due %s\n", c.EquipmentID, from, c.PersonID, formatTime(c.DueAt))
			})
		}),
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history EQUIPMENT",
		Short: "List every checkout of a piece of equipment, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			records, err := svc.History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("history %s: %w", args[0], err)
			}
			return a.emit(cmd, records, func(w io.Writer) { printCheckouts(w, records...) })
		}),
	}
}

func newOverdueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List active checkouts past their due time",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			records, err := svc.Overdue(cmd.Context())
			if err != nil {
				return fmt.Errorf("overdue: %w", err)
			}
			return a.emit(cmd, records, func(w io.Writer) { printCheckouts(w, records...) })
		}),
	}
}

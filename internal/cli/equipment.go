package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ellie/internal/inventory"
)

func newEquipmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "equipment",
		Aliases: []string{"eq"},
		Short:   "Manage equipment",
	}
	cmd.AddCommand(
		newEquipmentAddCmd(a),
		newEquipmentListCmd(a),
		newEquipmentGetCmd(a),
		newEquipmentUpdateCmd(a),
		newEquipmentDeleteCmd(a),
	)
	return cmd
}

func newEquipmentAddCmd(a *app) *cobra.Command {
	var in inventory.EquipmentInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a piece of equipment",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			e, err := svc.AddEquipment(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("add equipment: %w", err)
			}
			return a.emit(cmd, e, func(w io.Writer) {
				fmt.Fprintf(w, "Added equipment %s (%s)\n", e.ID, e.Name)
			})
		}),
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "equipment name (required)")
	cmd.Flags().StringVar(&in.Tag, "tag", "", "asset tag")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-form description")
	return cmd
}

func newEquipmentListCmd(a *app) *cobra.Command {
	var filter inventory.EquipmentFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List equipment",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			items, err := svc.ListEquipment(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list equipment: %w", err)
			}
			return a.emit(cmd, items, func(w io.Writer) { printEquipment(w, items...) })
		}),
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status (available or checked_out)")
	cmd.Flags().StringVar(&filter.Query, "search", "", "match name, tag or holder name (case-insensitive)")
	return cmd
}

func newEquipmentGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one piece of equipment",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			e, err := svc.GetEquipment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get equipment %s: %w", args[0], err)
			}
			return a.emit(cmd, e, func(w io.Writer) { printEquipment(w, e) })
		}),
	}
}

func newEquipmentUpdateCmd(a *app) *cobra.Command {
	var name, tag, description string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change equipment fields",
		Long:  "Change the name, tag or description of equipment. Only flags given on the command line are applied.",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			var patch inventory.EquipmentPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("tag") {
				patch.Tag = &tag
			}
			if flags.Changed("description") {
				patch.Description = &description
			}

			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			e, err := svc.UpdateEquipment(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("update equipment %s: %w", args[0], err)
			}
			return a.emit(cmd, e, func(w io.Writer) {
				fmt.Fprintf(w, "Updated equipment %s\n", e.ID)
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&tag, "tag", "", "new asset tag")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newEquipmentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete equipment that is not checked out",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := svc.DeleteEquipment(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete equipment %s: %w", args[0], err)
			}
			return a.emit(cmd, statusMessage{Status: "deleted", ID: args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted equipment %s\n", args[0])
			})
		}),
	}
}

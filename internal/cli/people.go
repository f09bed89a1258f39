package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ellie/internal/inventory"
)

func newPeopleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"person"},
		Short:   "Manage people who can hold equipment",
	}
	cmd.AddCommand(
		newPersonAddCmd(a),
		newPeopleListCmd(a),
		newPersonGetCmd(a),
		newPersonUpdateCmd(a),
		newPersonDeleteCmd(a),
	)
	return cmd
}

func newPersonAddCmd(a *app) *cobra.Command {
	var in inventory.PersonInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			p, err := svc.AddPerson(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("add person: %w", err)
			}
			return a.emit(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "Added person %s (%s)\n", p.ID, p.Name)
			})
		}),
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Role, "role", "", "role or team")
	return cmd
}

func newPeopleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List people",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			people, err := svc.ListPeople(cmd.Context())
			if err != nil {
				return fmt.Errorf("list people: %w", err)
			}
			return a.emit(cmd, people, func(w io.Writer) { printPeople(w, people...) })
		}),
	}
}

func newPersonGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one person",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			p, err := svc.GetPerson(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get person %s: %w", args[0], err)
			}
			return a.emit(cmd, p, func(w io.Writer) { printPeople(w, p) })
		}),
	}
}

func newPersonUpdateCmd(a *app) *cobra.Command {
	var name, email, role string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a person's fields",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			var patch inventory.PersonPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("role") {
				patch.Role = &role
			}

			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			p, err := svc.UpdatePerson(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("update person %s: %w", args[0], err)
			}
			return a.emit(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "Updated person %s\n", p.ID)
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&role, "role", "", "new role")
	return cmd
}

func newPersonDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a person who holds no equipment",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := svc.DeletePerson(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete person %s: %w", args[0], err)
			}
			return a.emit(cmd, statusMessage{Status: "deleted", ID: args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted person %s\n", args[0])
			})
		}),
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ellie/internal/backend"
	"github.com/mesh-intelligence/ellie/internal/lifecycle"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

// openService attaches the configured backend and wraps it in a lifecycle
// service. The returned function detaches the backend.
func (a *app) openService(cmd *cobra.Command, opts ...lifecycle.Option) (*lifecycle.Service, func(), error) {
	b, err := backend.Open(a.settings.storage())
	if err != nil {
		return nil, nil, sysError{fmt.Errorf("open storage: %w", err)}
	}
	base := []lifecycle.Option{
		lifecycle.WithLogger(log.New(cmd.ErrOrStderr(), "lifecycle: ", log.LstdFlags)),
	}
	if a.settings.LockTimeout > 0 {
		base = append(base, lifecycle.WithLockTimeout(a.settings.LockTimeout))
	}
	svc := lifecycle.New(b, append(base, opts...)...)
	return svc, func() { _ = b.Detach() }, nil
}

// emit writes v as indented JSON in --json mode, otherwise calls human.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(out)
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printEquipment(w io.Writer, items ...types.Equipment) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAG\tSTATUS\tHOLDER\tDUE")
	for _, e := range items {
		holder, due := "-", "-"
		if e.CheckedOutTo != nil {
			holder = *e.CheckedOutTo
		}
		if e.DueAt != nil {
			due = formatTime(*e.DueAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, orDash(e.Tag), e.Status, holder, due)
	}
	tw.Flush()
}

func printPeople(w io.Writer, people ...types.Person) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, p := range people {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, orDash(p.Email), orDash(p.Role))
	}
	tw.Flush()
}

func printCheckouts(w io.Writer, records ...types.Checkout) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEQUIPMENT\tPERSON\tOUT\tDUE\tIN\tHANDOFF")
	for _, c := range records {
		in := "-"
		if c.CheckedInAt != nil {
			in = formatTime(*c.CheckedInAt)
		}
		handoff := "-"
		if c.HandoffFrom != nil {
			handoff = "from " + *c.HandoffFrom
		} else if c.Handoff {
			handoff = "handed off"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.EquipmentID, c.PersonID, formatTime(c.CheckedOutAt), formatTime(c.DueAt), in, handoff)
	}
	tw.Flush()
}

// statusMessage is the JSON body printed for operations that return no entity.
type statusMessage struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

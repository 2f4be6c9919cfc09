package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/lorrc/helpdesk/internal/core/domain"
)

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// renderDashboard prints the admin overview as a series of tables.
func renderDashboard(w io.Writer, d *domain.Dashboard) error {
	counts := newTable(w, "Status", "Queries")
	for _, s := range domain.AllStatuses {
		_ = counts.Append([]string{string(s), strconv.Itoa(d.Stats.Counts.Get(s))})
	}
	_ = counts.Append([]string{"total", strconv.Itoa(d.Stats.Total)})
	if err := counts.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCompletion rate: %.1f%%\n", d.Stats.CompletionRate*100)

	if len(d.Specialists) > 0 {
		fmt.Fprintln(w, "\nSpecialists")
		if err := renderWorkloads(w, d.Specialists); err != nil {
			return err
		}
	}

	if len(d.Employees) > 0 {
		fmt.Fprintln(w, "\nEmployees")
		if err := renderWorkloads(w, d.Employees); err != nil {
			return err
		}
	}

	if d.Users != nil {
		fmt.Fprintf(w, "\nUsers: %d (%d employees, %d specialists, %d admins)\n",
			d.Users.Total, d.Users.Employees, d.Users.Specialists, d.Users.Admins)
	}
	return nil
}

func renderWorkloads(w io.Writer, ws []domain.UserWorkload) error {
	table := newTable(w, "Name", "Email", "Total", "Pending", "Completed")
	for _, wl := range ws {
		_ = table.Append([]string{
			wl.Name,
			wl.Email,
			strconv.Itoa(wl.Total),
			strconv.Itoa(wl.Pending),
			strconv.Itoa(wl.Completed),
		})
	}
	return table.Render()
}

func renderUsers(w io.Writer, users []*domain.User) error {
	table := newTable(w, "ID", "Name", "Email", "Role", "Active")
	for _, u := range users {
		_ = table.Append([]string{
			u.ID.String(),
			u.Name,
			u.Email,
			string(u.Role),
			strconv.FormatBool(u.IsActive),
		})
	}
	return table.Render()
}

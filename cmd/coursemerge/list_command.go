package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"coursemerge/internal/course"
	"coursemerge/internal/sessions"
)

const listDescriptionWidth = 60

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the session's packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *sessions.Store) error {
				packages, err := store.ListBySession(cmd.Context(), ctx.sessionID())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(packages) == 0 {
					fmt.Fprintf(out, "Session %s has no packages. Use `coursemerge add` first.\n", ctx.sessionID())
					return nil
				}

				excluded := 0
				for _, pkg := range packages {
					if pkg.Excluded() {
						excluded++
					}
				}
				fmt.Fprintln(out, renderPackageTable(packages))
				if excluded > 0 {
					fmt.Fprintf(out, "%d package(s) excluded from merge\n", excluded)
				}
				return nil
			})
		},
	}
}

// renderPackageTable lays out the session listing: a right-aligned index
// column followed by the package columns, in upload order.
func renderPackageTable(packages []*course.Package) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Version", "Description", "File", "Status"})
	for i, pkg := range packages {
		status := "ok"
		description := truncateColumn(pkg.Description, listDescriptionWidth)
		if pkg.Excluded() {
			status = "excluded"
			description = truncateColumn(pkg.Error, listDescriptionWidth)
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			pkg.DisplayTitle(),
			pkg.Version,
			description,
			pkg.Filename,
			status,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func truncateColumn(value string, width int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-1]) + "…"
}

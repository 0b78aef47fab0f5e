package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mineralog/internal/refdb"
)

type dedupeOptions struct {
	input     string
	output    string
	nameField string
}

func (a *App) newDedupeCommand() *cobra.Command {
	var opts dedupeOptions

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Merge duplicate entries of a reference mineral database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name-field") {
				opts.nameField = a.cfg.ReferenceNameField
			}
			return a.runDedupe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "reference database JSON")
	f.StringVarP(&opts.output, "output", "o", "", "deduplicated JSON to write")
	f.StringVar(&opts.nameField, "name-field", "", "field used as merge key (default from config)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) runDedupe(cmd *cobra.Command, opts dedupeOptions) error {
	ctx := cmd.Context()

	doc, err := refdb.Load(opts.input)
	if err != nil {
		return err
	}
	out, report := refdb.Dedupe(doc, opts.nameField)
	if report.Unnamed > 0 {
		a.printWarn("%d entries without %s were dropped", report.Unnamed, opts.nameField)
	}
	for _, g := range report.Duplicates {
		a.log.Debug(ctx, "merged duplicates", "name", g.Name, "count", g.Count)
	}
	if err := refdb.Save(opts.output, out); err != nil {
		return err
	}

	successColor.Fprintf(a.out, "Deduplicated %s -> %s\n", opts.input, opts.output)
	a.printField("input", report.Input)
	a.printField("output", report.Output)
	a.printField("removed", report.Input-report.Output)
	a.printField("groups", len(report.Duplicates))
	a.printField("duplicates", report.DuplicateEntries())

	if len(report.Duplicates) > 0 {
		tw := newTable([]string{"Name", "Entries"}, rightAligned(2))
		for _, g := range report.Duplicates {
			tw.AppendRow(table.Row{g.Name, g.Count})
		}
		tw.AppendFooter(table.Row{"duplicate entries", report.DuplicateEntries()})
		fmt.Fprintln(a.out, tw.Render())
	}
	return nil
}

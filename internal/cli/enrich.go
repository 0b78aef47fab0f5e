package cli

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mineralog/internal/refdb"
)

type enrichOptions struct {
	input  string
	seed   string
	output string
}

// enrichClock and enrichID are test seams for the enricher.
var (
	enrichClock = time.Now
	enrichID    = uuid.NewString
)

func (a *App) newEnrichCommand() *cobra.Command {
	var opts enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Upsert seed minerals and corrections into a reference database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEnrich(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "reference database JSON")
	f.StringVarP(&opts.seed, "seed", "s", "", "YAML seed file")
	f.StringVarP(&opts.output, "output", "o", "", "enriched JSON to write")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("seed")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) runEnrich(cmd *cobra.Command, opts enrichOptions) error {
	ctx := cmd.Context()

	doc, err := refdb.Load(opts.input)
	if err != nil {
		return err
	}
	seed, err := refdb.LoadSeed(opts.seed)
	if err != nil {
		return err
	}

	en := &refdb.Enricher{
		NameField: a.cfg.ReferenceNameField,
		Now:       enrichClock,
		NewID:     enrichID,
	}
	out, report, err := en.Enrich(doc, seed)
	if err != nil {
		return err
	}
	if report.Unnamed > 0 {
		a.printWarn("%d entries without %s were dropped", report.Unnamed, en.NameField)
	}
	a.log.Info(ctx, "enriched",
		"updated", len(report.Updated),
		"created", len(report.Created),
		"corrected", len(report.Corrected),
		"collapsed", report.Collapsed)

	if err := refdb.Save(opts.output, out); err != nil {
		return err
	}

	successColor.Fprintf(a.out, "Enriched %s -> %s\n", opts.input, opts.output)
	a.printField("total", out.TotalMinerals)
	a.printField("updated", joinOrDash(report.Updated))
	a.printField("created", joinOrDash(report.Created))
	a.printField("corrected", len(report.Corrected))
	a.printField("collapsed", report.Collapsed)
	return nil
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

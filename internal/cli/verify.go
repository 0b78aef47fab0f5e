package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mineralog/internal/archive"
	"github.com/dmitrijs2005/mineralog/internal/checksum"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/filex"
)

type verifyOptions struct {
	password string
	dump     string
}

func (a *App) newVerifyCommand() *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check an archive's integrity and decode its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.password, "password", "", "decryption password (prompted when the archive is encrypted)")
	f.StringVar(&opts.dump, "dump", "", "write the decoded minerals.json to this path")

	return cmd
}

func (a *App) runVerify(cmd *cobra.Command, path string, opts verifyOptions) error {
	ctx := cmd.Context()

	arc, err := archive.ReadFile(path, archive.Limits{
		MaxArchiveBytes:      a.cfg.MaxArchiveBytes,
		MaxDecompressedBytes: a.cfg.MaxDecompressedBytes,
		MaxCompressionRatio:  a.cfg.MaxCompressionRatio,
	})
	if err != nil {
		return err
	}
	if err := arc.CheckSchema(a.cfg.SchemaVersion); err != nil {
		return err
	}

	fmt.Fprintln(a.out, memberTable(arc))
	if err := arc.Verify(); err != nil {
		return err
	}
	for _, name := range arc.Unlisted() {
		a.printWarn("%s has no checksum line", name)
	}
	a.log.Info(ctx, "checksums verified", "archive", path, "entries", len(arc.Checksums))

	var pw []byte
	if arc.Manifest.Encrypted {
		pw = []byte(opts.password)
		if len(pw) == 0 {
			pw, err = a.GetPassword("Enter archive password: ")
			if err != nil {
				return err
			}
		}
		defer common.WipeByteArray(pw)
	}

	payload, err := arc.Payload(pw)
	if err != nil {
		return err
	}
	recs, err := archive.UnmarshalRecords(payload)
	if err != nil {
		return err
	}
	if got, want := len(recs), arc.Manifest.Counts.Minerals; got != want {
		a.printWarn("manifest counts %d minerals, payload holds %d", want, got)
	}

	if opts.dump != "" {
		if err := filex.WriteFileAtomic(opts.dump, payload, 0o600); err != nil {
			return err
		}
		a.log.Info(ctx, "payload written", "path", opts.dump)
	}

	m := arc.Manifest
	successColor.Fprintf(a.out, "Archive OK: %s\n", path)
	a.printField("app", m.App)
	a.printField("schema", m.SchemaVersion)
	a.printField("exported at", m.ExportedAt)
	a.printField("minerals", len(recs))
	a.printField("photos", len(arc.Media()))
	a.printField("encrypted", m.Encrypted)
	return nil
}

func memberTable(arc *archive.Archive) string {
	listed := make(map[string]string, len(arc.Checksums))
	for _, e := range arc.Checksums {
		listed[e.Path] = e.Digest
	}

	tw := newTable(
		[]string{"Member", "Bytes", "SHA-256", "Status"},
		rightAligned(2),
		table.ColumnConfig{Number: 4, Transformer: colorStatus},
	)
	total := 0
	for _, name := range arc.Members() {
		data, _ := arc.Member(name)
		digest := checksum.Digest(data)
		status := statusOK
		switch want, ok := listed[name]; {
		case name == common.ChecksumsMember:
			status = statusListing
		case !ok:
			status = statusUnlisted
		case want != digest:
			status = statusMismatch
		}
		total += len(data)
		tw.AppendRow(table.Row{name, len(data), digest[:16], status})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d members", len(arc.Members())), total, "", ""})
	return tw.Render()
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mineralog/internal/archive"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/exporter"
	"github.com/dmitrijs2005/mineralog/internal/records"
)

type exportOptions struct {
	input      string
	output     string
	mediaDir   string
	encrypt    bool
	password   string
	iterations int
}

func (a *App) newExportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build a MineraLog archive from a CSV catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				a.cfg.KDFIterations = opts.iterations
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			return a.runExport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "CSV catalog to export")
	f.StringVarP(&opts.output, "output", "o", "", "archive to write")
	f.StringVar(&opts.mediaDir, "media-dir", "", "directory whose files are packaged under media/")
	f.BoolVar(&opts.encrypt, "encrypt", false, "encrypt minerals.json with a password")
	f.StringVar(&opts.password, "password", "", "encryption password (prompted when omitted)")
	f.IntVar(&opts.iterations, "iterations", 0, "PBKDF2 iterations (default from config)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) runExport(cmd *cobra.Command, opts exportOptions) error {
	ctx := cmd.Context()

	packager := archive.NewPackager(archive.Options{
		AppName:          a.cfg.AppName,
		SchemaVersion:    a.cfg.SchemaVersion,
		Iterations:       a.cfg.KDFIterations,
		CompressionLevel: a.cfg.CompressionLevel,
	}, a.log)
	exp := exporter.New(records.NewBuilder(), packager, a.log)

	req := exporter.Request{
		Input:    opts.input,
		Output:   opts.output,
		MediaDir: opts.mediaDir,
		Encrypt:  opts.encrypt || opts.password != "",
	}
	if err := exp.Preflight(req); err != nil {
		return err
	}

	if req.Encrypt {
		pw := []byte(opts.password)
		if len(pw) == 0 {
			var err error
			pw, err = a.GetPassword("Enter encryption password: ")
			if err != nil {
				return err
			}
		}
		defer common.WipeByteArray(pw)
		if len(pw) == 0 {
			return common.ErrPasswordRequired
		}
		req.Password = pw
	}

	res, err := exp.Run(ctx, req)
	if err != nil {
		return err
	}

	m := res.Manifest
	successColor.Fprintf(a.out, "Exported %s\n", res.Output)
	a.printField("minerals", m.Counts.Minerals)
	a.printField("photos", m.Counts.Photos)
	a.printField("encrypted", m.Encrypted)
	a.printField("schema", m.SchemaVersion)
	a.printField("exported at", m.ExportedAt)
	return nil
}

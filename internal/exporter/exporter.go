// Package exporter runs the CSV-to-archive pipeline: parse rows, build
// records, optionally encrypt, then package and atomically write the archive.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mineralog/internal/archive"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/cryptox"
	"github.com/dmitrijs2005/mineralog/internal/filex"
	"github.com/dmitrijs2005/mineralog/internal/logging"
	"github.com/dmitrijs2005/mineralog/internal/models"
	"github.com/dmitrijs2005/mineralog/internal/records"
)

// Request describes one export run.
type Request struct {
	Input    string
	Output   string
	MediaDir string
	Encrypt  bool
	Password []byte
}

// Result is returned by a successful run.
type Result struct {
	Output   string
	Manifest models.Manifest
}

// checkCapability is a test seam for cryptox.CheckCapability.
var checkCapability = cryptox.CheckCapability

// Exporter wires the record builder and the packager together.
type Exporter struct {
	builder  *records.Builder
	packager *archive.Packager
	log      logging.Logger

	stage Stage
}

func New(builder *records.Builder, packager *archive.Packager, log logging.Logger) *Exporter {
	return &Exporter{builder: builder, packager: packager, log: log}
}

// Stage reports where the last run stopped.
func (e *Exporter) Stage() Stage {
	return e.stage
}

// Preflight checks everything that can fail before any work is done: the
// input must exist and, when encrypting, the cipher must be usable.
func (e *Exporter) Preflight(req Request) error {
	if _, err := os.Stat(req.Input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrInputNotFound, req.Input)
		}
		return fmt.Errorf("stat %s: %w", req.Input, err)
	}
	if req.Encrypt {
		if err := checkCapability(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the pipeline. Either the archive exists complete at
// req.Output or an error is returned and req.Output is untouched.
func (e *Exporter) Run(ctx context.Context, req Request) (*Result, error) {
	e.stage = StageIdle
	res, err := e.run(ctx, req)
	if err != nil {
		failedAt := e.stage
		e.stage = StageFailed
		e.log.Error(ctx, "export failed", "stage", failedAt.String(), "error", err)
		return nil, err
	}
	e.enter(ctx, StageDone)
	return res, nil
}

func (e *Exporter) run(ctx context.Context, req Request) (*Result, error) {
	if err := e.Preflight(req); err != nil {
		return nil, err
	}
	if req.Encrypt && len(req.Password) == 0 {
		return nil, common.ErrPasswordRequired
	}

	e.enter(ctx, StageParsing)
	rows, err := records.ReadFile(req.Input)
	if err != nil {
		return nil, err
	}

	e.enter(ctx, StageBuilding)
	recs, err := e.builder.Build(rows)
	if err != nil {
		return nil, err
	}
	e.log.Info(ctx, "records built", "count", len(recs))

	var media []filex.File
	if req.MediaDir != "" {
		media, err = filex.CollectFiles(req.MediaDir)
		if err != nil {
			return nil, err
		}
		e.log.Info(ctx, "media collected", "dir", req.MediaDir, "files", len(media))
	}

	var password []byte
	if req.Encrypt {
		e.enter(ctx, StageEncryptionPending)
		password = req.Password
	}
	bundle, err := e.packager.Build(ctx, recs, media, password)
	if err != nil {
		return nil, err
	}
	if bundle.Manifest.Encrypted {
		e.enter(ctx, StageEncrypted)
	}

	e.enter(ctx, StagePackaging)
	if err := e.packager.Write(ctx, req.Output, bundle); err != nil {
		return nil, err
	}
	return &Result{Output: req.Output, Manifest: bundle.Manifest}, nil
}

func (e *Exporter) enter(ctx context.Context, s Stage) {
	e.stage = s
	e.log.Debug(ctx, "stage", "stage", s.String())
}

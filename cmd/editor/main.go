// Command editor runs a headless editing session: it opens a project from the
// layer service, plays an event script, and writes the result as SVG or PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"layer-editor/internal/common/config"
	"layer-editor/internal/editor"
	"layer-editor/internal/editor/coordinator"
	"layer-editor/internal/layers/client"
	"layer-editor/internal/render"
)

// ============================================================
// Editor CLI
// ============================================================

func main() {
	cfg := config.Load()

	layersURL := flag.String("layers-url", cfg.LayersURL, "Layer service base URL")
	projectID := flag.Int64("project", 0, "Project to open (0 edits offline)")
	scriptPath := flag.String("script", "", "JSON event script to play")
	importPath := flag.String("import", "", "SVG file whose shapes are added as drafts")
	svgOut := flag.String("out", "", "Write the final canvas as SVG")
	pdfOut := flag.String("pdf", "", "Write the final canvas as PDF")
	save := flag.Bool("save", false, "Persist drafts when the script is done")
	timeout := flag.Duration("timeout", time.Duration(cfg.RequestTimeout)*time.Second, "Request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, options{
		layersURL: *layersURL,
		projectID: *projectID,
		script:    *scriptPath,
		importSVG: *importPath,
		svgOut:    *svgOut,
		pdfOut:    *pdfOut,
		save:      *save,
		timeout:   *timeout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "editor: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	layersURL string
	projectID int64
	script    string
	importSVG string
	svgOut    string
	pdfOut    string
	save      bool
	timeout   time.Duration
}

func run(ctx context.Context, opts options) error {
	canvas := render.NewCanvas(0, 0)

	var backend coordinator.Backend
	if opts.projectID > 0 {
		api := client.New(opts.layersURL, opts.timeout)
		project, err := api.GetProject(ctx, opts.projectID)
		if err != nil {
			return err
		}
		if project.Image != nil {
			canvas.SetBackground(opts.layersURL + "/media/" + project.Image.ImageFile)
		}
		backend = api
	}

	session := editor.NewSession(backend, canvas)
	if backend != nil {
		if err := session.Open(ctx, opts.projectID); err != nil {
			return err
		}
	}

	if opts.importSVG != "" {
		f, err := os.Open(opts.importSVG)
		if err != nil {
			return err
		}
		shapes, err := render.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
		if err := session.Import(shapes); err != nil {
			return err
		}
	}

	if opts.script != "" {
		f, err := os.Open(opts.script)
		if err != nil {
			return err
		}
		steps, err := readScript(f)
		f.Close()
		if err != nil {
			return err
		}
		if err := runScript(ctx, session, canvas, steps); err != nil {
			return err
		}
	}

	if opts.save {
		report, err := session.Save(ctx)
		if err != nil {
			return fmt.Errorf("save (%d created, %d failed): %w", len(report.Created), len(report.Failed), err)
		}
	}

	if opts.svgOut != "" {
		if err := os.WriteFile(opts.svgOut, []byte(canvas.SVG()), 0o644); err != nil {
			return err
		}
		log.Printf("[EDITOR] SVG written to %s", opts.svgOut)
	}

	if opts.pdfOut != "" {
		f, err := os.Create(opts.pdfOut)
		if err != nil {
			return err
		}
		width, height := canvas.Size()
		if err := render.ExportPDF(f, session.Shapes(), width, height, nil); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("[EDITOR] PDF written to %s", opts.pdfOut)
	}

	return nil
}

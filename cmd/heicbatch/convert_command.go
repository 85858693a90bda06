package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"heicbatch/internal/batch"
	"heicbatch/internal/config"
	"heicbatch/internal/convert"
	"heicbatch/internal/logging"
	"heicbatch/internal/packager"
	"heicbatch/internal/queue"
)

type convertFlags struct {
	format      string
	quality     int
	output      string
	concurrency int
	mixed       bool
	individual  bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <file|dir>...",
		Short: "Convert HEIC images and save the results",
		Long: "Convert HEIC/HEIF images to PNG, JPEG, or WebP. Directories are scanned for images.\n" +
			"A single result is saved as-is; several results are saved as one zip archive.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg, err := applyConvertFlags(cmd, cfg, flags)
			if err != nil {
				return err
			}
			return runConvert(cmd, ctx, runCfg, flags.individual, args)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: png, jpg, or webp")
	cmd.Flags().IntVarP(&flags.quality, "quality", "q", 0, "Encoder quality for jpg/webp (1-100)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Directory to save results into")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "Concurrent conversions (1-6, 0 = auto)")
	cmd.Flags().BoolVar(&flags.mixed, "mixed", false, "Also accept JPEG/PNG files and pass them through unchanged")
	cmd.Flags().BoolVar(&flags.individual, "individual", false, "Save each result as its own file instead of a zip archive")
	return cmd
}

// applyConvertFlags returns a copy of cfg with the flags the user set applied
// and the result re-validated.
func applyConvertFlags(cmd *cobra.Command, cfg *config.Config, flags convertFlags) (*config.Config, error) {
	runCfg := *cfg
	set := cmd.Flags().Changed
	if set("format") {
		runCfg.Conversion.Format = flags.format
	}
	if set("quality") {
		runCfg.Conversion.Quality = flags.quality
	}
	if set("concurrency") {
		runCfg.Conversion.Concurrency = flags.concurrency
	}
	if flags.mixed {
		runCfg.Admission.Mode = config.AdmissionModeMixed
	}
	if output := strings.TrimSpace(flags.output); output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
		runCfg.Paths.OutputDir = expanded
	}
	if err := runCfg.Normalize(); err != nil {
		return nil, err
	}
	if err := runCfg.Validate(); err != nil {
		return nil, err
	}
	return &runCfg, nil
}

func runConvert(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, individual bool, args []string) error {
	out := cmd.OutOrStdout()

	paths, err := collectInputs(args)
	if err != nil {
		return err
	}
	files, skipped, err := readInputs(paths, queue.PolicyFromConfig(cfg))
	if err != nil {
		return err
	}

	logger, err := ctx.newLogger(cfg)
	if err != nil {
		return err
	}
	prim, err := convert.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	opts, err := batch.OptionsFromConfig(cfg, prim, logger)
	if err != nil {
		return err
	}
	progress := newProgressReporter(cmd.ErrOrStderr(), "Converting")
	opts.Observer = progress.observe
	controller := batch.New(opts)

	_, submitErr := controller.Submit(files)
	snap := controller.Snapshot()
	printRejections(newStatusPrinter(out), append(skipped, snap.Rejected...))
	if submitErr != nil {
		return submitErr
	}
	fmt.Fprintf(out, "Converting %s to %s with %s\n",
		countNoun(snap.Summary.Total, "file"), snap.Format.Label(), countNoun(controller.Lanes(), "lane"))

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := controller.Start(runCtx); err != nil {
		return err
	}
	snap, err = controller.Wait(context.Background())
	progress.finish()
	stop()
	if err != nil {
		return err
	}

	if snap.Phase == batch.PhaseCancelled {
		fmt.Fprintln(out, "Conversion cancelled; nothing was written.")
		return nil
	}

	names := outputNames(snap)
	fmt.Fprintln(out, renderResults(snap, names))
	if snap.Err != nil {
		return snap.Err
	}

	saved, err := saveResults(cmd.Context(), controller, cfg, snap, individual, logger)
	if err != nil {
		return err
	}
	for _, path := range saved {
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	if snap.Summary.Failed > 0 {
		fmt.Fprintf(out, "Converted %d of %d files; %d failed.\n",
			snap.Summary.Succeeded, snap.Summary.Total, snap.Summary.Failed)
	}
	return nil
}

// saveResults writes the packaged output. When the archive cannot be built the
// converted files are saved one by one instead.
func saveResults(ctx context.Context, controller *batch.Controller, cfg *config.Config, snap batch.Snapshot, individual bool, logger *slog.Logger) ([]string, error) {
	dir := cfg.Paths.OutputDir
	if !individual {
		packaged, err := controller.Package(packager.OptionsFromConfig(cfg))
		if err == nil {
			path, err := packager.Save(ctx, dir, packaged)
			if err != nil {
				return nil, err
			}
			return []string{path}, nil
		}
		if errors.Is(err, packager.ErrNothingToPackage) {
			return nil, err
		}
		logger.Warn("archive unavailable, saving files individually",
			logging.Error(err),
			logging.String(logging.FieldEventType, "archive_fallback"),
		)
	}
	return packager.SaveEntries(ctx, dir, packager.AssignNames(snap.Jobs, snap.Format))
}

func outputNames(snap batch.Snapshot) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	for _, entry := range packager.AssignNames(snap.Jobs, snap.Format) {
		names[entry.JobID] = entry.Name
	}
	return names
}

func renderResults(snap batch.Snapshot, names map[uuid.UUID]string) string {
	headers := []string{"File", "Status", "Output", "Size", "Detail"}
	rows := make([][]string, 0, len(snap.Jobs))
	for _, job := range snap.Jobs {
		row := []string{job.Name, string(job.Status), "", "", ""}
		switch job.Status {
		case queue.StatusSucceeded:
			row[2] = names[job.ID]
			row[3] = humanize.Bytes(uint64(len(job.Output)))
			if job.Passthrough {
				row[4] = "passed through"
			} else {
				row[4] = job.Duration().Round(10 * time.Millisecond).String()
			}
		case queue.StatusFailed:
			row[4] = job.FailureReason
		}
		rows = append(rows, row)
	}
	footer := []string{
		countNoun(snap.Summary.Total, "file"),
		fmt.Sprintf("%d ok / %d failed", snap.Summary.Succeeded, snap.Summary.Failed),
		"",
		"",
		fmt.Sprintf("%d%%", snap.Summary.Percent),
	}
	return renderTable(headers, rows, footer, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

func countNoun(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s", n, noun)
}

func printRejections(status *statusPrinter, rejected []queue.Rejection) {
	for _, r := range rejected {
		status.line(r.Name, statusWarn, "skipped: "+r.Reason)
	}
}

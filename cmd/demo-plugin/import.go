package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/internal/importer"
	"github.com/green-ecolution/demo-plugin/pkg/render"
)

type importOptions struct {
	file    string
	dryRun  bool
	against string
	html    string
	json    bool
}

func importCmd(flags *globalFlags) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Plan a tree register CSV import",
		Long: `Convert a TBZ Flensburg tree register CSV export and print the import
plan: which trees would be created, updated or replaced.

The header row must match CSV_HEADERS exactly. Coordinates are converted
from CSV_USED_EPSG (default 25832) to CSV_TO_EPSG (default 4326).
Trees already known to the host are read from --against, a previous
export; without it every tree is planned for creation.

Examples:
  demo-plugin import --dry-run baumkataster.csv
  demo-plugin import --dry-run baumkataster-2024.csv --against baumkataster-2023.csv
  demo-plugin import --dry-run baumkataster.csv --html plan.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the plan without applying it")
	cmd.Flags().StringVar(&opts.against, "against", "", "Previous export holding the trees the host already knows")
	cmd.Flags().StringVar(&opts.html, "html", "", "Also write the plan as an HTML page")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the plan as JSON")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, cfg *config.Config, opts importOptions) error {
	if !opts.dryRun {
		return errors.Newf(errors.CategoryCLI,
			"applying an import needs the host's tree API, which this plugin does not call; rerun with --dry-run")
	}

	conv, err := importer.NewConverter(cfg.Import)
	if err != nil {
		return err
	}

	trees, err := conv.ConvertFile(ctx, opts.file)
	if err != nil {
		return err
	}

	var existing []importer.Tree
	if opts.against != "" {
		known, err := conv.ConvertFile(ctx, opts.against)
		if err != nil {
			return err
		}
		// IDs follow row order in the previous export.
		existing = make([]importer.Tree, len(known))
		for i, t := range known {
			existing[i] = *t
			existing[i].ID = importer.TreeID(i + 1)
		}
	}

	plan := importer.NewPlan(existing, trees)

	if opts.html != "" {
		if err := writePlanPage(opts.html, cfg.Plugin.Name+": "+filepath.Base(opts.file), plan); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	fmt.Fprintf(out, "Import plan for %s (%d trees, EPSG:%d to EPSG:%d)\n",
		filepath.Base(opts.file), len(trees), cfg.Import.SourceEPSG, cfg.Import.TargetEPSG)
	fmt.Fprintf(out, "  create: %d\n  update: %d\n  delete: %d\n", len(plan.Create), len(plan.Update), len(plan.Delete))
	for _, t := range plan.Create {
		fmt.Fprintf(out, "  + %s at %.6f, %.6f\n", t, t.Latitude, t.Longitude)
	}
	for _, t := range plan.Update {
		fmt.Fprintf(out, "  ~ #%d %s\n", t.ID, t)
	}
	for _, id := range plan.Delete {
		fmt.Fprintf(out, "  - #%d\n", id)
	}
	if opts.html != "" {
		fmt.Fprintf(out, "Wrote %s\n", opts.html)
	}
	return nil
}

func writePlanPage(path, title string, plan *importer.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Newf(errors.CategoryCLI, "cannot write %s", path).Wrap(err)
	}
	defer f.Close()

	r := render.NewRenderer(render.RendererConfig{OmitHydration: true})
	if err := r.RenderPage(f, render.PageData{Title: title, Body: plan.Render()}); err != nil {
		return errors.Newf(errors.CategoryCLI, "cannot write %s", path).Wrap(err)
	}
	return f.Close()
}

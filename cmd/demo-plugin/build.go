package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/counter"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		output string
		clean  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the plugin bundle",
		Long: `Build the bundle a host loads: the remote entry named in the
federation manifest, one fingerprinted chunk per exposed module,
manifest.json and assets.json.

Examples:
  demo-plugin build
  demo-plugin build --output=dist --clean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags, output, clean)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from plugin.json)")
	cmd.Flags().BoolVar(&clean, "clean", false, "Clean output directory before build")

	return cmd
}

func runBuild(ctx context.Context, flags *globalFlags, output string, clean bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Build.Output = output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container := federation.NewContainer(cfg.Federation)
	counter.Provide(container)

	builder := build.New(cfg, container, build.Options{
		Version:    version,
		Clean:      clean || cfg.Build.Clean,
		OnProgress: func(step string) { info(step) },
	})

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build complete in %s", result.Duration.Round(1000000))
	fmt.Println()
	fmt.Printf("  %s/ (%d files, %s)\n", result.Output, result.Files, formatBytes(result.Size))
	for _, name := range result.Bundle.Files() {
		data, _ := result.Bundle.File(name)
		fmt.Printf("    %-40s %s\n", name, formatBytes(int64(len(data))))
	}
	fmt.Println()
	return nil
}

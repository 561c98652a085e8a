package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/green-ecolution/demo-plugin/pkg/host"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var (
		shared  []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Load a remote the way a host does",
		Long: `Fetch manifest.json, assets.json and the remote entry from a running
plugin or a storage origin, verify them and resolve the shared
dependencies against a host scope.

Examples:
  demo-plugin inspect http://localhost:8080/
  demo-plugin inspect https://cdn.example.com/demo-plugin/ --shared react=18.3.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(flags); err != nil {
				return err
			}
			scope, err := parseScope(shared)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runInspect(ctx, args[0], scope)
		},
	}

	cmd.Flags().StringSliceVar(&shared, "shared", nil, "Host-provided dependency as name=version (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")

	return cmd
}

func runInspect(ctx context.Context, base string, scope host.Scope) error {
	remote, err := host.NewLoader().Load(ctx, base)
	if err != nil {
		return err
	}

	m := remote.Manifest
	success("Loaded %s from %s", m.Name, remote.EntryURL())
	fmt.Println()

	fmt.Println("  Exposes:")
	for _, public := range m.ExposedPaths() {
		chunk, err := remote.Resolve(public)
		if err != nil {
			return err
		}
		fmt.Printf("    %-20s %s\n", public, chunk)
	}
	fmt.Println()

	fmt.Println("  Shared:")
	resolutions, err := remote.Negotiate(scope)
	for _, res := range resolutions {
		line := fmt.Sprintf("    %-36s %-8s %s", res.Name, res.Strategy, res.Version)
		if res.Reason != "" {
			line += " (" + res.Reason + ")"
		}
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Println()
	return err
}

// parseScope turns name=version pairs into a host scope. Scoped package
// names ("@scope/pkg=1.0.0") are split at the last "=".
func parseScope(pairs []string) (host.Scope, error) {
	scope := host.Scope{}
	for _, pair := range pairs {
		i := strings.LastIndex(pair, "=")
		if i <= 0 || i == len(pair)-1 {
			return nil, fmt.Errorf("invalid --shared value %q: want name=version", pair)
		}
		scope[pair[:i]] = pair[i+1:]
	}
	return scope, nil
}

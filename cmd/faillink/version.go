// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the faillink version and build details",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", formatText, "output format: text, json, or yaml")
	rootCmd.AddCommand(versionCmd)
}

// buildDetails describes the running binary.
type buildDetails struct {
	Version  string `json:"version" yaml:"version"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Modified bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

func currentBuild() buildDetails {
	b := buildDetails{
		Version:  version,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Revision = s.Value
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}
	return b
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	b := currentBuild()
	if format != formatText {
		return encode(cmd.OutOrStdout(), b, format)
	}
	printBuild(cmd.OutOrStdout(), b)
	return nil
}

func printBuild(w io.Writer, b buildDetails) {
	fmt.Fprintf(w, "faillink %s\n", b.Version)
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if b.Modified {
			rev += "-dirty"
		}
		fmt.Fprintf(w, "  revision: %s\n", rev)
	}
	fmt.Fprintf(w, "  go:       %s %s\n", b.Go, b.Platform)
}

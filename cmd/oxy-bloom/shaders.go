package main

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/spf13/cobra"
)

func newShadersCommand(root *rootOptions) *cobra.Command {
	shadersCmd := &cobra.Command{
		Use:   "shaders",
		Short: "Inspect the WGSL shaders",
	}

	var dir string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile every shader with naga and report the result per file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				cfg, err := root.load()
				if err != nil {
					return err
				}
				dir = cfg.Shaders.Dir
			}

			results := shader.ValidateSources(dir)
			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range names {
				if err := results[name]; err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d shaders failed validation", failed, len(names))
			}
			return nil
		},
	}
	validateCmd.Flags().StringVar(&dir, "dir", "", "override directory (default shaders.dir, embedded sources when empty)")

	shadersCmd.AddCommand(validateCmd)
	return shadersCmd
}

package main

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
)

func newThemesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the themes available to the vanilla renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.themes()
			if err != nil {
				return err
			}
			refs := registry.Themes()
			rows := make([][]string, 0, len(refs))
			for _, ref := range refs {
				manifest, err := registry.Theme(ref.Name, theme.WithVersion(ref.Version))
				if err != nil {
					return err
				}
				variants := make([]string, 0, len(manifest.Variants))
				for name := range manifest.Variants {
					variants = append(variants, name)
				}
				sort.Strings(variants)
				rows = append(rows, []string{ref.Name, ref.Version, strings.Join(variants, ", "), ref.Description})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Name", "Version", "Variants", "Description"}, rows, nil))
			return nil
		},
	}
}

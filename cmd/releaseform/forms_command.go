package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-releaseform/pkg/model"
)

func newFormsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the available release forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.forms()
			if err != nil {
				return err
			}
			ids := store.IDs()
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No forms found")
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				form, _ := store.Form(id)
				rows = append(rows, []string{id, form.Title, describeSections(form.Sections), store.Source(id)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Sections", "Source"}, rows, nil))
			return nil
		},
	}
}

// describeSections renders "release(1) tracks(1-3) authors(1+)".
func describeSections(sections []model.Section) string {
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		var bounds string
		switch {
		case section.Unbounded():
			bounds = strconv.Itoa(section.MinCount) + "+"
		case section.MinCount == section.MaxCount:
			bounds = strconv.Itoa(section.MaxCount)
		default:
			bounds = fmt.Sprintf("%d-%d", section.MinCount, section.MaxCount)
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", section.Name, bounds))
	}
	return strings.Join(parts, " ")
}

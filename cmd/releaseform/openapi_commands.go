package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/openapi"
)

func newOpenAPICommand(_ *commandContext) *cobra.Command {
	openapiCmd := &cobra.Command{
		Use:         "openapi",
		Short:       "Build forms from OpenAPI request bodies",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	openapiCmd.AddCommand(newOpenAPIOperationsCommand())
	openapiCmd.AddCommand(newOpenAPIFormCommand())
	return openapiCmd
}

func newOpenAPIOperationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operations <source>",
		Short: "List operations that declare a request body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := openapi.ReadSource(cmd.Context(), args[0], nil, http.DefaultClient)
			if err != nil {
				return err
			}
			ids, err := openapi.Operations(cmd.Context(), raw)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newOpenAPIFormCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "form <source> <operation>",
		Short: "Show the form built from an operation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := openapi.ReadSource(cmd.Context(), args[0], nil, http.DefaultClient)
			if err != nil {
				return err
			}
			form, err := openapi.FormFromDocument(cmd.Context(), raw, args[1], openapi.WithRootSection(root))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", form.ID, describeSections(form.Sections))
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Section", "Field", "Kind", "Required", "Rule"}, formRows(form), nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", openapi.DefaultRootSection, "Section holding scalar properties")
	return cmd
}

func formRows(form model.Form) [][]string {
	var rows [][]string
	for _, section := range form.Sections {
		for _, field := range section.Fields {
			rule := field.RequiredWhen
			if field.Kind == model.FieldKindSelect {
				rule = strings.Join(field.Options, "|")
			} else if field.Kind == model.FieldKindFile && len(field.Accept) > 0 {
				rule = strings.Join(field.Accept, ", ")
			}
			rows = append(rows, []string{section.Name, field.Name, string(field.Kind), yesNo(field.Required), rule})
		}
	}
	return rows
}

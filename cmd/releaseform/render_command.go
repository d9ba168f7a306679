package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	releaseform "github.com/goliatone/go-releaseform"
	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/formschema"
	"github.com/goliatone/go-releaseform/pkg/model"
	"github.com/goliatone/go-releaseform/pkg/openapi"
	"github.com/goliatone/go-releaseform/pkg/render"
	"github.com/goliatone/go-releaseform/pkg/renderers/vanilla"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var rendererName, output, action, templatesDir, source, themeName, variant string
	var linkUpload bool

	cmd := &cobra.Command{
		Use:   "render <form>",
		Short: "Render the blank form (vanilla HTML or text summary)",
		Long: "Render the blank form. With --openapi the form is built from the request body " +
			"of the operation named by <form> instead of the built-in definitions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			form, err := resolveForm(cmd.Context(), ctx, args[0], source)
			if err != nil {
				return err
			}
			extras := cfg.Extras()
			if cmd.Flags().Changed("link-upload") {
				extras["linkUpload"] = linkUpload
			}
			c, err := controller.New(form, controller.WithOwner(cfg.Form.Owner), controller.WithExtras(extras))
			if err != nil {
				return err
			}

			var opts []vanilla.Option
			if strings.TrimSpace(templatesDir) != "" {
				opts = append(opts, vanilla.WithTemplatesDir(templatesDir))
			}
			registry, err := releaseform.NewRegistry(opts...)
			if err != nil {
				return err
			}

			themes, err := ctx.themes()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("theme") {
				themeName = cfg.Render.Theme
			}
			if !cmd.Flags().Changed("variant") {
				variant = cfg.Render.Variant
			}
			themeCfg, err := releaseform.ResolveTheme(themes, themeName, variant)
			if err != nil {
				return err
			}

			body, _, err := registry.Render(cmd.Context(), rendererName, c.Snapshot(), render.RenderOptions{
				Action: action,
				Theme:  themeCfg,
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Form written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rendererName, "renderer", "r", vanilla.Name, "Renderer to use (vanilla, summary)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().StringVar(&action, "action", "", "Form action URL")
	cmd.Flags().StringVar(&templatesDir, "templates", "", "Directory overriding the embedded templates")
	cmd.Flags().StringVar(&source, "openapi", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&themeName, "theme", "", "Theme name (defaults to render.theme)")
	cmd.Flags().StringVar(&variant, "variant", "", "Theme variant (defaults to render.variant)")
	cmd.Flags().BoolVar(&linkUpload, "link-upload", false, "Render the cloud-link variant")
	return cmd
}

func resolveForm(ctx context.Context, cc *commandContext, id, source string) (model.Form, error) {
	if strings.TrimSpace(source) != "" {
		raw, err := openapi.ReadSource(ctx, source, nil, http.DefaultClient)
		if err != nil {
			return model.Form{}, err
		}
		return openapi.FormFromDocument(ctx, raw, id)
	}
	forms, err := cc.forms()
	if err != nil {
		return model.Form{}, err
	}
	return lookupForm(forms, id)
}

func lookupForm(forms *formschema.Store, id string) (model.Form, error) {
	form, ok := forms.Form(id)
	if !ok {
		return model.Form{}, fmt.Errorf("unknown form %q (available: %s)", id, strings.Join(forms.IDs(), ", "))
	}
	return form, nil
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	releaseform "github.com/goliatone/go-releaseform"
	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/renderers/summary"
	"github.com/goliatone/go-releaseform/pkg/renderers/tui"
)

func newFillCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var linkUpload bool

	cmd := &cobra.Command{
		Use:   "fill <form>",
		Short: "Fill and submit a release form interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			forms, err := ctx.forms()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("owner") {
				owner = cfg.Form.Owner
			}
			if strings.TrimSpace(owner) == "" {
				return errors.New("owner is required: set form.owner, RELEASEFORM_OWNER, or --owner")
			}
			extras := cfg.Extras()
			if cmd.Flags().Changed("link-upload") {
				extras["linkUpload"] = linkUpload
			}

			return ctx.withBackend(logger, func(b backend) error {
				c, err := releaseform.NewController(forms, args[0],
					controller.WithLogger(logger),
					controller.WithFileStore(b),
					controller.WithRecordSubmitter(b),
					controller.WithOwner(owner),
					controller.WithExtras(extras),
				)
				if err != nil {
					return err
				}

				session := tui.New(
					tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
					tui.WithLogger(logger),
					tui.WithSummary(summary.New()),
				)
				receipt, err := session.Run(cmd.Context(), c)
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted; nothing was submitted")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted request %s (%d file(s) uploaded)\n", receipt.ID, receipt.Uploaded)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Account that files the request")
	cmd.Flags().BoolVar(&linkUpload, "link-upload", false, "Provide a cloud link instead of uploading files")
	return cmd
}

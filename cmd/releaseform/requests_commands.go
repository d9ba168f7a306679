package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-releaseform/internal/client"
	"github.com/goliatone/go-releaseform/internal/store"
	"github.com/goliatone/go-releaseform/pkg/model"
)

// requestView is the common shape of local and remote requests.
type requestView struct {
	ID      string         `json:"id"`
	Owner   string         `json:"owner"`
	Type    string         `json:"type"`
	Status  string         `json:"status"`
	Created string         `json:"created,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Files   []fileView     `json:"files,omitempty"`
}

// fileView describes an uploaded file referenced by a local request.
type fileView struct {
	Field     string `json:"field"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	Path      string `json:"path"`
}

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and review submitted release requests",
	}
	requestsCmd.AddCommand(newRequestsListCommand(ctx))
	requestsCmd.AddCommand(newRequestsShowCommand(ctx))
	requestsCmd.AddCommand(newRequestsStatusCommand(ctx))
	return requestsCmd
}

func newRequestsListCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("owner") && !all {
				owner = cfg.Form.Owner
			}
			if all {
				owner = ""
			}

			views, err := listRequests(cmd, ctx, owner)
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ID, v.Owner, v.Type, v.Status, v.Created})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Owner", "Type", "Status", "Created"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only list requests of this owner")
	cmd.Flags().BoolVar(&all, "all", false, "List requests of every owner")
	return cmd
}

func listRequests(cmd *cobra.Command, ctx *commandContext, owner string) ([]requestView, error) {
	remote, ok, err := ctx.remote()
	if err != nil {
		return nil, err
	}
	if ok {
		list, err := remote.ListRequests(cmd.Context())
		if err != nil {
			return nil, err
		}
		views := make([]requestView, 0, len(list))
		for _, r := range list {
			if owner != "" && r.Username != owner {
				continue
			}
			views = append(views, remoteView(r))
		}
		sort.SliceStable(views, func(i, j int) bool { return views[i].Created > views[j].Created })
		return views, nil
	}

	var views []requestView
	err = ctx.withStore(func(local *store.Store) error {
		list, err := local.ListRequests(cmd.Context(), owner)
		if err != nil {
			return err
		}
		for _, r := range list {
			views = append(views, localView(r))
		}
		return nil
	})
	return views, err
}

func newRequestsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one request as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view requestView
			remote, ok, err := ctx.remote()
			if err != nil {
				return err
			}
			if ok {
				r, err := remote.GetRequest(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				view = remoteView(r)
			} else {
				err := ctx.withStore(func(local *store.Store) error {
					r, err := local.GetRequest(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					view = localView(r)
					view.Files, err = localFiles(cmd.Context(), ctx, local, r)
					return err
				})
				if err != nil {
					return err
				}
			}
			encoded, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

func newRequestsStatusCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "status <id> <pending|accepted|error>",
		Short: "Set the review status of a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := store.Status(strings.ToLower(strings.TrimSpace(args[1])))
			if !status.Valid() {
				return fmt.Errorf("unknown status %q (want pending, accepted, or error)", args[1])
			}
			remote, ok, err := ctx.remote()
			if err != nil {
				return err
			}
			if ok {
				err = remote.SetStatus(cmd.Context(), args[0], string(status))
			} else {
				err = ctx.withStore(func(local *store.Store) error {
					return local.SetStatus(cmd.Context(), args[0], status, message)
				})
			}
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("request %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s is now %s\n", args[0], status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Reason shown with the error status")
	return cmd
}

func localView(r store.Request) requestView {
	data := make(map[string]any, len(r.Record.Sections))
	for name, rows := range r.Record.Sections {
		data[name] = rows
	}
	return requestView{
		ID:      r.ID,
		Owner:   r.Owner,
		Type:    client.ReleaseType(r.Form),
		Status:  string(r.Status),
		Created: formatTime(r.CreatedAt),
		Message: r.ErrorMessage,
		Data:    data,
	}
}

// localFiles resolves the file references of r through the store, using the
// form definition to find file fields. Unknown forms and refs are skipped.
func localFiles(ctx context.Context, cc *commandContext, local *store.Store, r store.Request) ([]fileView, error) {
	forms, err := cc.forms()
	if err != nil {
		return nil, err
	}
	form, ok := forms.Form(r.Record.Form)
	if !ok {
		return nil, nil
	}
	var files []fileView
	for _, section := range form.Sections {
		for i, row := range r.Record.Sections[section.Name] {
			for _, field := range section.Fields {
				ref, _ := row[field.Name].(string)
				if field.Kind != model.FieldKindFile || ref == "" {
					continue
				}
				f, err := local.File(ctx, ref)
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				files = append(files, fileView{
					Field:     fmt.Sprintf("%s[%d].%s", section.Name, i, field.Name),
					Name:      f.Name,
					MediaType: f.MediaType,
					Size:      f.Size,
					Path:      f.Path,
				})
			}
		}
	}
	return files, nil
}

func remoteView(r client.RemoteRequest) requestView {
	return requestView{
		ID:      r.ID,
		Owner:   r.Username,
		Type:    r.Type,
		Status:  r.Status,
		Created: r.Date,
		Data:    r.Data,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

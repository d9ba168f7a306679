package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"

	releaseform "github.com/goliatone/go-releaseform"
	"github.com/goliatone/go-releaseform/internal/client"
	"github.com/goliatone/go-releaseform/internal/config"
	"github.com/goliatone/go-releaseform/internal/logging"
	"github.com/goliatone/go-releaseform/internal/store"
	"github.com/goliatone/go-releaseform/pkg/controller"
	"github.com/goliatone/go-releaseform/pkg/formschema"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(out io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, out)
}

func (c *commandContext) forms() (*formschema.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return releaseform.LoadForms(cfg.Form.FormsDir)
}

func (c *commandContext) themes() (*theme.MemoryRegistry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return releaseform.LoadThemes(cfg.Render.ThemesDir)
}

// backend is where files and records go: the remote API when enabled,
// otherwise the local store.
type backend interface {
	controller.FileStore
	controller.RecordSubmitter
}

func (c *commandContext) withBackend(logger *slog.Logger, fn func(backend) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.API.Enabled {
		remote, err := client.New(cfg.API.BaseURL, client.WithTimeout(cfg.Timeout()), client.WithLogger(logger))
		if err != nil {
			return err
		}
		return fn(remote)
	}
	return c.withStore(func(local *store.Store) error {
		return fn(local)
	})
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	local, err := store.Open(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	defer local.Close()
	return fn(local)
}

func (c *commandContext) remote() (*client.Client, bool, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	if !cfg.API.Enabled {
		return nil, false, nil
	}
	remote, err := client.New(cfg.API.BaseURL, client.WithTimeout(cfg.Timeout()))
	if err != nil {
		return nil, false, err
	}
	return remote, true, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

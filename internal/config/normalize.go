package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeForm()
	c.normalizeLogging()
	c.normalizeRender()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Storage.Dir) == "" {
		c.Storage.Dir = defaultStorageDir
	}
	if c.Storage.Dir, err = expandPath(strings.TrimSpace(c.Storage.Dir)); err != nil {
		return fmt.Errorf("storage.dir: %w", err)
	}
	if dir := strings.TrimSpace(c.Form.FormsDir); dir != "" {
		if c.Form.FormsDir, err = expandPath(dir); err != nil {
			return fmt.Errorf("form.forms_dir: %w", err)
		}
	} else {
		c.Form.FormsDir = ""
	}
	if dir := strings.TrimSpace(c.Render.ThemesDir); dir != "" {
		if c.Render.ThemesDir, err = expandPath(dir); err != nil {
			return fmt.Errorf("render.themes_dir: %w", err)
		}
	} else {
		c.Render.ThemesDir = ""
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// normalizeForm falls back to RELEASEFORM_OWNER, then USER, for the owner.
func (c *Config) normalizeForm() {
	c.Form.Owner = strings.TrimSpace(c.Form.Owner)
	if c.Form.Owner != "" {
		return
	}
	for _, key := range []string{"RELEASEFORM_OWNER", "USER"} {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			c.Form.Owner = strings.TrimSpace(value)
			return
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeRender() {
	c.Render.Theme = strings.TrimSpace(c.Render.Theme)
	if c.Render.Theme == "" {
		c.Render.Theme = defaultTheme
	}
	c.Render.Variant = strings.TrimSpace(c.Render.Variant)
	if c.Render.Variant == "" {
		c.Render.Variant = defaultVariant
	}
}

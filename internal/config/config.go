// Package config loads riverblog's settings from, in increasing order of
// precedence: built-in defaults, riverblog.yaml, the environment (a .env
// file included), and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/content/markdown"
	"github.com/river-now/riverblog/internal/theme"
	"github.com/river-now/riverblog/kit/validate"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const (
	EnvPrefix   = "RIVERBLOG"
	FileName    = "riverblog"
	DefaultPort = 3000
)

type Config struct {
	Site     Site     `mapstructure:"site"`
	Content  Content  `mapstructure:"content"`
	Markdown Markdown `mapstructure:"markdown"`
	Theme    Theme    `mapstructure:"theme"`
	Build    Build    `mapstructure:"build"`
	Server   Server   `mapstructure:"server"`
}

type Site struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Locale      string `mapstructure:"locale"`
	// Shown in the footer copyright. Defaults to the title when empty.
	Author string `mapstructure:"author"`
	// Image shown beside the description on the home page: an absolute
	// URL or a path such as /public/avatar.jpg.
	Avatar string `mapstructure:"avatar"`
	Links  []Link `mapstructure:"links"`
	// Files served under /public/ and copied there by build. A missing
	// directory is skipped.
	PublicDir string `mapstructure:"public_dir"`
}

// Link is one entry of the footer's link list.
type Link struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type Content struct {
	Dir         string `mapstructure:"dir"`
	Pattern     string `mapstructure:"pattern"`
	Concurrency int    `mapstructure:"concurrency"`
}

type Markdown struct {
	Engine        string `mapstructure:"engine"`
	ExternalLinks bool   `mapstructure:"external_links"`
}

type Theme struct {
	Default string `mapstructure:"default"`
}

type Build struct {
	OutDir string `mapstructure:"out_dir"`
	Strict bool   `mapstructure:"strict"`
}

type Server struct {
	Port int  `mapstructure:"port"`
	Dev  bool `mapstructure:"dev"`
}

var defaults = map[string]any{
	"site.title":              "riverblog",
	"site.description":        "",
	"site.locale":             "en",
	"site.author":             "",
	"site.avatar":             "",
	"site.public_dir":         "public",
	"content.dir":             "posts",
	"content.pattern":         content.DefaultPattern,
	"content.concurrency":     content.DefaultConcurrency,
	"markdown.engine":         markdown.EngineBlackfriday,
	"markdown.external_links": false,
	"theme.default":           string(theme.Light),
	"build.out_dir":           "out",
	"build.strict":            true,
	"server.port":             DefaultPort,
	"server.dev":              false,
}

type LoadOptions struct {
	// Optional. Explicit config file. When empty, riverblog.yaml is
	// looked up in Dir and is not required to exist.
	File string
	// Optional. Where to look for riverblog.yaml and .env. Defaults to ".".
	Dir string
	// Optional. Binds extra sources such as command line flags.
	Bind func(v *viper.Viper) error
}

// Load reads the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.File != "" {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	if opts.Bind != nil {
		if err := opts.Bind(v); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// Validate checks every section. Each invalid field is reported.
func (c Config) Validate() error {
	v := validate.Object(c)
	v.Required("Site")
	v.Required("Content")
	v.Required("Markdown")
	v.Required("Theme")
	v.Required("Build")
	v.Required("Server")
	return v.Error()
}

func (s Site) Validate() error {
	v := validate.Object(s)
	v.Required("Title")
	v.Required("Locale").Check(func(any) error {
		_, err := language.Parse(s.Locale)
		return err
	})
	v.Optional("Avatar").Check(func(any) error {
		if strings.HasPrefix(s.Avatar, "/") {
			return nil
		}
		return absoluteURL(s.Avatar)
	})
	v.Optional("Links").Check(func(any) error {
		var errs []error
		for i, l := range s.Links {
			if err := l.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("link %d: %w", i, err))
			}
		}
		return errors.Join(errs...)
	})
	return v.Error()
}

func (l Link) Validate() error {
	v := validate.Object(l)
	v.Required("Name")
	v.Required("URL").Check(func(any) error { return absoluteURL(l.URL) })
	return v.Error()
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "mailto":
		return nil
	}
	return fmt.Errorf("%q is not an http(s) or mailto URL", raw)
}

func (c Content) Validate() error {
	v := validate.Object(c)
	v.Required("Dir")
	v.Required("Pattern").Check(func(any) error {
		if !doublestar.ValidatePattern(c.Pattern) {
			return fmt.Errorf("invalid pattern %q", c.Pattern)
		}
		return nil
	})
	v.Required("Concurrency").Check(positive)
	return v.Error()
}

func (m Markdown) Validate() error {
	engines := make([]any, len(markdown.Engines))
	for i, e := range markdown.Engines {
		engines[i] = e
	}
	v := validate.Object(m)
	v.Required("Engine").OneOf(engines...)
	return v.Error()
}

func (t Theme) Validate() error {
	v := validate.Object(t)
	v.Required("Default").Check(func(any) error {
		_, err := theme.Parse(t.Default)
		return err
	})
	return v.Error()
}

func (b Build) Validate() error {
	v := validate.Object(b)
	v.Required("OutDir")
	return v.Error()
}

func (s Server) Validate() error {
	v := validate.Object(s)
	v.Required("Port").Check(func(any) error {
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("must be between 1 and 65535 (got %d)", s.Port)
		}
		return nil
	})
	return v.Error()
}

func positive(v any) error {
	if n, ok := v.(int); ok && n > 0 {
		return nil
	}
	return fmt.Errorf("must be positive (got %v)", v)
}

// ThemeDefault returns the parsed default theme. Validate guarantees it
// parses.
func (c *Config) ThemeDefault() theme.Theme {
	t, _ := theme.Parse(c.Theme.Default)
	return t
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }

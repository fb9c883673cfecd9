package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/andrasna/folio"
)

// configKeys are the folio.yaml keys that may also be set through FOLIO_*
// environment variables.
var configKeys = []string{
	"title", "description", "author", "url", "lang", "logo_text",
	"content_dir", "about_path", "static_dir", "output_dir",
	"excerpt_length", "excerpt_separator", "include_drafts", "max_image_width",
	"github_login", "github_endpoint", "pinned_count", "projects_heading",
	"addr", "database_path", "session_secret", "cookie_secure",
	"log_level", "post_cache_ttl", "repo_cache_ttl",
}

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level": "log_level",
	"output":    "output_dir",
	"addr":      "addr",
}

// cli holds the state shared by the subcommands.
type cli struct {
	cfgFile string
	cfg     folio.SiteConfig
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "folio",
		Short: "folio - a portfolio and blog built with Go, Echo and templ",
		Long: `folio renders a personal portfolio: a home page listing pinned GitHub
repositories, an about page and a markdown blog. It writes the site as static
files (build) or serves it directly (serve).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["config"] == "skip" {
				return nil
			}
			return c.loadConfig(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./folio.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error or off")

	root.AddCommand(c.buildCmd(), c.serveCmd(), newNewCmd(), newVersionCmd())
	return root
}

// loadConfig fills c.cfg from .env.<FOLIO_ENV>, folio.yaml, FOLIO_*
// environment variables and flags, in increasing order of precedence.
// setDefaults in folio.New fills whatever is still empty.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	v := viper.New()
	envFile, err := loadDotenv(v)
	if err != nil {
		return err
	}

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	if err := v.BindEnv("github_token", "FOLIO_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return err
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	configUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if c.cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", c.cfgFile, err)
		}
	} else {
		configUsed = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	c.logger = folio.NewLogger(c.cfg.LogLevel)
	if envFile != "" {
		c.logger.Debugf("loaded environment from %s", envFile)
	}
	if configUsed != "" {
		c.logger.Infof("using config file %s", configUsed)
	} else {
		c.logger.Info("no folio.yaml found, using defaults and environment")
	}
	return nil
}

// loadDotenv reads .env.<FOLIO_ENV> (default "development") from the working
// directory when it exists. Its FOLIO_* variables and GITHUB_TOKEN become
// viper defaults, so folio.yaml and the real environment both override them.
func loadDotenv(v *viper.Viper) (string, error) {
	env := os.Getenv("FOLIO_ENV")
	if env == "" {
		env = "development"
	}
	name := ".env." + env
	if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	vars, err := gotenv.Read(name)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", name, err)
	}
	for k, val := range vars {
		if key, ok := dotenvKey(k); ok {
			v.SetDefault(key, val)
		}
	}
	return name, nil
}

// dotenvKey maps an environment variable name to its config key.
func dotenvKey(name string) (string, bool) {
	if name == "GITHUB_TOKEN" {
		return "github_token", true
	}
	key, ok := strings.CutPrefix(name, "FOLIO_")
	if !ok || key == "ENV" {
		return "", false
	}
	return strings.ToLower(key), true
}

func (c *cli) newApp() *folio.App {
	return folio.New(c.cfg, folio.WithLogger(c.logger))
}

// Package config gathers the settings of the host: label service
// endpoint and credentials, print output, logging and rendering knobs.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Print outputs
const (
	OutputPDF  = "pdf"
	OutputHTML = "html"
)

type Config struct {
	APIBaseURL string
	Username   string
	Password   string

	// PrintOutput is the print surface, OutputPDF or OutputHTML.
	PrintOutput string
	// PrinterCommand, if not empty, receives the print document on
	// its standard input. Otherwise documents are written in OutputDir.
	PrinterCommand string
	OutputDir      string

	Debug   bool
	LogFile string

	FontDir       string
	ListenAddr    string
	ImageTimeout  time.Duration
	ImageCacheTTL time.Duration
	SettleDelay   time.Duration
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		PrintOutput:   OutputPDF,
		OutputDir:     "labels",
		ListenAddr:    ":3000",
		ImageTimeout:  15 * time.Second,
		ImageCacheTTL: 10 * time.Minute,
		SettleDelay:   200 * time.Millisecond,
	}
}

// envKeys maps the environment variables to the overlay keys.
var envKeys = map[string]string{
	"OKLABEL_API_BASE_URL":    "apiBaseUrl",
	"OKLABEL_USERNAME":        "username",
	"OKLABEL_PASSWORD":        "password",
	"OKLABEL_PRINT_OUTPUT":    "printOutput",
	"OKLABEL_PRINTER_COMMAND": "printerCommand",
	"OKLABEL_OUTPUT_DIR":      "outputDir",
	"OKLABEL_DEBUG":           "debug",
	"OKLABEL_LOG_FILE":        "logFile",
	"OKLABEL_FONT_DIR":        "fontDir",
	"OKLABEL_LISTEN_ADDR":     "listenAddr",
	"OKLABEL_IMAGE_TIMEOUT":   "imageTimeout",
	"OKLABEL_IMAGE_CACHE_TTL": "imageCacheTTL",
	"OKLABEL_SETTLE_DELAY":    "settleDelay",
}

// Load returns the defaults overlaid by the environment. The variables
// defined in the `files` (or in ".env" if none are given) are loaded
// first, without overriding the ones already set. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	overlay := map[string]string{}
	for env, key := range envKeys {
		if v, ok := os.LookupEnv(env); ok {
			overlay[key] = v
		}
	}
	cfg := Defaults()
	err := cfg.Merge(overlay)
	return cfg, err
}

// Merge overlays `options` on the configuration. Keys are the
// camelCase names of the fields (apiBaseUrl, username, ...).
// Unknown keys are rejected.
func (c *Config) Merge(options map[string]string) error {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.set(key, strings.TrimSpace(options[key])); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) set(key, value string) (err error) {
	switch key {
	case "apiBaseUrl":
		c.APIBaseURL = strings.TrimRight(value, "/")
	case "username":
		c.Username = value
	case "password":
		c.Password = value
	case "printOutput":
		value = strings.ToLower(value)
		if value != OutputPDF && value != OutputHTML {
			return fmt.Errorf("unsupported print output %q", value)
		}
		c.PrintOutput = value
	case "printerCommand":
		c.PrinterCommand = value
	case "outputDir":
		c.OutputDir = value
	case "debug":
		c.Debug, err = strconv.ParseBool(value)
	case "logFile":
		c.LogFile = value
	case "fontDir":
		c.FontDir = value
	case "listenAddr":
		c.ListenAddr = value
	case "imageTimeout":
		c.ImageTimeout, err = time.ParseDuration(value)
	case "imageCacheTTL":
		c.ImageCacheTTL, err = time.ParseDuration(value)
	case "settleDelay":
		c.SettleDelay, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown key")
	}
	return err
}

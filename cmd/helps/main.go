// Command helps matches translation-helps quotations against original-language
// text and maps them onto aligned translations.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperHelps/core/adapter"
	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/core/sqlite"
	"github.com/FocuswithJustin/JuniperHelps/core/usfm"
	"github.com/FocuswithJustin/JuniperHelps/internal/config"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
)

const version = "0.1.0"

// CLI defines the command-line interface for helps.
var CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Path to helps.yaml (default: $HELPS_CONFIG)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error (overrides config)"`
	LogFormat string `name:"log-format" help:"Log format: text, json (overrides config)"`

	Match   MatchCmd   `cmd:"" help:"Find a quotation in an original-language book file"`
	Align   AlignCmd   `cmd:"" help:"Resolve original semantic IDs against an aligned translation"`
	IDs     IDsCmd     `cmd:"" name:"ids" help:"List the semantic IDs of the words in a passage"`
	Notes   NotesCmd   `cmd:"" help:"Resolve every row of a translation notes or word links TSV"`
	Import  ImportCmd  `cmd:"" help:"Import a directory of book files into the content store"`
	Serve   ServeCmd   `cmd:"" help:"Start the WebSocket bridge"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// setup loads configuration and initializes logging. Without --config or
// HELPS_CONFIG the defaults are used.
func setup() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case CLI.Config != "":
		cfg, err = config.LoadFile(CLI.Config)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if CLI.LogLevel != "" {
		level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		format = CLI.LogFormat
	}
	logging.InitLogger(logging.ParseLevel(level), logging.ParseFormat(format))
	return cfg, nil
}

// openSource builds the configured content source: resource directories
// first, then the content store, behind a book cache.
func openSource(cfg *config.Config) (source.Source, func(), error) {
	roots := make(map[string]string)
	for _, r := range cfg.Resources {
		if r.Path != "" {
			roots[r.Key] = r.Path
		}
	}

	var chain source.Chain
	if len(roots) > 0 {
		chain = append(chain, source.NewDir(roots))
	}
	closer := func() {}
	if cfg.Paths.Store != "" {
		if _, err := os.Stat(cfg.Paths.Store); err == nil {
			store, err := source.OpenStore(cfg.Paths.Store)
			if err != nil {
				return nil, nil, err
			}
			chain = append(chain, store)
			closer = func() { store.Close() }
		}
	}
	return source.NewCached(chain, cfg.Cache.Books), closer, nil
}

// matcherOptions returns the matcher options for an original resource.
func matcherOptions(cfg *config.Config, resourceKey, direction string) quote.Options {
	opts := quote.Options{ReorderWindow: cfg.Matcher.ReorderWindow}
	if r, ok := cfg.Resource(resourceKey); ok {
		opts.Direction = quote.ParseDirection(r.Direction)
	}
	if direction != "" {
		opts.Direction = quote.ParseDirection(direction)
	}
	return opts
}

// loadBook parses and converts a single book file.
func loadBook(path string) (*doc.Document, []ir.Chapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	d, err := source.Parse(path, f)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := adapter.Convert(d)
	if err != nil {
		return nil, nil, err
	}
	return d, chapters, nil
}

// bookFromName finds a book code among the parts of a file name such as
// "tn_TIT.tsv" or "twl_1JN.tsv".
func bookFromName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, part := range strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	}) {
		if code := strings.ToUpper(part); usfm.BookNames[code] != "" {
			return code
		}
	}
	return ""
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("helps version %s\n", version)
	fmt.Printf("sqlite driver: %s (%s)\n", info.DriverType, info.Package)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("helps"),
		kong.Description("Translation helps quote matching and alignment"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	WatchPaths    []string      `toml:"watch_paths"`
	Paths         Paths         `toml:"paths"`
	Projection    Projection    `toml:"projection"`
	Cache         Cache         `toml:"cache"`
	Performance   Performance   `toml:"performance"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Alerts        Alerts        `toml:"alerts"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
	DatabaseDir string `toml:"database_dir"`
}

// Projection tunes how declarations are turned into class views.
type Projection struct {
	// DeprecatedNames are the annotation names treated as deprecation
	// markers.
	DeprecatedNames []string `toml:"deprecated_names"`
	// BuiltinPrefixes mark path prefixes whose files belong to the
	// language runtime and are never projected.
	BuiltinPrefixes []string `toml:"builtin_prefixes"`
}

type Cache struct {
	// Stubs is the stub-bundle LRU capacity, in outermost declarations.
	Stubs int `toml:"stubs"`
}

type Performance struct {
	// MaxHeapMB triggers stub-cache pruning during bulk scans once the
	// heap grows past this size.
	MaxHeapMB int `toml:"max_heap_mb"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// RebuildsPerSecond caps how often change batches trigger a
	// re-projection. Zero disables the limit.
	RebuildsPerSecond float64 `toml:"rebuilds_per_second"`
}

type Alerts struct {
	// Terminal prints the projection summary after every update.
	// Defaults to enabled.
	Terminal *bool `toml:"terminal"`
	Beep     bool  `toml:"beep"`
}

func (a Alerts) TerminalEnabled() bool {
	if a.Terminal == nil {
		return true
	}
	return *a.Terminal
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	KeepRuns    int           `toml:"keep_runs"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

type Output struct {
	TSV      string `toml:"tsv"`
	Markdown string `toml:"markdown"`
	StubsDir string `toml:"stubs_dir"`
	// VerifyStubs parses every rendered class surface with the Java
	// grammar and reports ill-formed output. Defaults to enabled.
	VerifyStubs    *bool              `toml:"verify_stubs"`
	UpdateMarkdown []SummaryInjection `toml:"update_markdown"`
	Report         Report             `toml:"report"`
	Paths          OutputPaths        `toml:"paths"`
}

// Report tunes the markdown report layout.
type Report struct {
	// Verbosity is one of summary, standard, detailed.
	Verbosity           string `toml:"verbosity"`
	TableOfContents     *bool  `toml:"table_of_contents"`
	CollapsibleSections *bool  `toml:"collapsible_sections"`
}

func (r Report) TableOfContentsEnabled() bool {
	if r.TableOfContents == nil {
		return true
	}
	return *r.TableOfContents
}

func (r Report) CollapsibleSectionsEnabled() bool {
	if r.CollapsibleSections == nil {
		return true
	}
	return *r.CollapsibleSections
}

// SummaryInjection names an existing markdown file whose marker block is
// replaced with the projection summary on every update.
type SummaryInjection struct {
	File   string `toml:"file"`
	Marker string `toml:"marker"`
}

type OutputPaths struct {
	Root string `toml:"root"`
}

func (o Output) VerifyEnabled() bool {
	if o.VerifyStubs == nil {
		return true
	}
	return *o.VerifyStubs
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if len(cfg.Projection.DeprecatedNames) == 0 {
		cfg.Projection.DeprecatedNames = []string{"kotlin.Deprecated", "java.lang.Deprecated"}
	}

	if cfg.Cache.Stubs == 0 {
		cfg.Cache.Stubs = 512
	}

	if cfg.Performance.MaxHeapMB == 0 {
		cfg.Performance.MaxHeapMB = 1024
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".gradle", "build", "out"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if cfg.History.KeepRuns == 0 {
		cfg.History.KeepRuns = 50
	}
	if !cfg.History.Enabled && cfg.Version <= 1 {
		// Keep v1 compatibility where the history block did not exist.
		cfg.History.Enabled = true
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9090
	}

	if strings.TrimSpace(cfg.Output.Report.Verbosity) == "" {
		cfg.Output.Report.Verbosity = "standard"
	}
	if strings.TrimSpace(cfg.Output.TSV) == "" {
		cfg.Output.TSV = "classes.tsv"
	}
	if strings.TrimSpace(cfg.Output.Markdown) == "" {
		cfg.Output.Markdown = "classes.md"
	}
	if strings.TrimSpace(cfg.Output.StubsDir) == "" {
		cfg.Output.StubsDir = "stubs"
	}
}

func validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateProjection(cfg); err != nil {
		return err
	}
	if err := validateCache(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	if err := validateHistory(cfg); err != nil {
		return err
	}
	if err := validateObservability(cfg); err != nil {
		return err
	}
	if err := validateOutput(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 2 {
		return fmt.Errorf("unsupported config version %d; supported versions are 1 and 2", cfg.Version)
	}
	return nil
}

func validateProjection(cfg *Config) error {
	for i, name := range cfg.Projection.DeprecatedNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("projection.deprecated_names[%d] must not be empty", i)
		}
	}
	for i, prefix := range cfg.Projection.BuiltinPrefixes {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("projection.builtin_prefixes[%d] must not be empty", i)
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.Stubs < 1 {
		return fmt.Errorf("cache.stubs must be >= 1, got %d", cfg.Cache.Stubs)
	}
	if cfg.Performance.MaxHeapMB < 1 {
		return fmt.Errorf("performance.max_heap_mb must be >= 1, got %d", cfg.Performance.MaxHeapMB)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.RebuildsPerSecond < 0 {
		return fmt.Errorf("watch.rebuilds_per_second must be >= 0, got %v", cfg.Watch.RebuildsPerSecond)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty")
	}
	if cfg.History.KeepRuns < 1 {
		return fmt.Errorf("history.keep_runs must be >= 1, got %d", cfg.History.KeepRuns)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be in 1..65535, got %d", cfg.Observability.Port)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.TSV) == "" {
		return fmt.Errorf("output.tsv must not be empty")
	}
	if strings.TrimSpace(cfg.Output.Markdown) == "" {
		return fmt.Errorf("output.markdown must not be empty")
	}
	if strings.TrimSpace(cfg.Output.StubsDir) == "" {
		return fmt.Errorf("output.stubs_dir must not be empty")
	}
	for i, injection := range cfg.Output.UpdateMarkdown {
		ref := fmt.Sprintf("output.update_markdown[%d]", i)
		if strings.TrimSpace(injection.File) == "" {
			return fmt.Errorf("%s.file must not be empty", ref)
		}
		if strings.TrimSpace(injection.Marker) == "" {
			return fmt.Errorf("%s.marker must not be empty", ref)
		}
	}
	switch cfg.Output.Report.Verbosity {
	case "summary", "standard", "detailed":
	default:
		return fmt.Errorf("output.report.verbosity must be summary, standard or detailed, got %q", cfg.Output.Report.Verbosity)
	}
	return nil
}

package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigID is the puzzle served when a session names no config
const DefaultConfigID = "larger_example"

// Supported file formats, matched longest suffix first
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "txt"
	FormatZstd = "txt.zst"
)

var formatSuffixes = []struct {
	suffix string
	format string
}{
	{".txt.zst", FormatZstd},
	{".json", FormatJSON},
	{".yaml", FormatYAML},
	{".yml", FormatYAML},
	{".txt", FormatText},
}

//go:embed puzzle.schema.json
var puzzleSchemaJSON string

var puzzleSchema = jsonschema.MustCompileString("puzzle.schema.json", puzzleSchemaJSON)

// Manager handles puzzle configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.PuzzleConfig
	configs       map[string]*engine.PuzzleConfig
	log           logrus.FieldLogger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	return NewManagerWithLogger(configDir, logrus.StandardLogger())
}

// NewManagerWithLogger creates a configuration manager that reports skipped files through logger
func NewManagerWithLogger(configDir string, logger logrus.FieldLogger) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.PuzzleConfig),
		log:       logger.WithField("component", "config"),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// splitName separates a config ID from a known file suffix.
// The format is empty when name carries no recognised suffix.
func splitName(name string) (id, format string) {
	for _, s := range formatSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return strings.TrimSuffix(name, s.suffix), s.format
		}
	}
	return name, ""
}

// LoadConfig loads a configuration by ID, with or without its file suffix
func (m *Manager) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	id, format := splitName(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	path, format, err := m.resolve(id, format)
	if err != nil {
		return nil, err
	}

	config, err := decodeFile(id, path, format)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another loader may have won the race
	if cached, exists := m.configs[id]; exists {
		return cached, nil
	}
	m.configs[id] = config
	return config, nil
}

// resolve finds the file backing a config ID
func (m *Manager) resolve(id, format string) (string, string, error) {
	if strings.ContainsAny(id, `/\`) || id == "" || id == "." || id == ".." {
		return "", "", ErrConfigNotFound
	}
	for _, s := range formatSuffixes {
		if format != "" && s.format != format {
			continue
		}
		path := filepath.Join(m.configDir, id+s.suffix)
		if _, err := os.Stat(path); err == nil {
			return path, s.format, nil
		}
	}
	return "", "", ErrConfigNotFound
}

// decodeFile reads a config file in the given format and validates it
func decodeFile(id, path, format string) (*engine.PuzzleConfig, error) {
	data, err := readFile(path, format)
	if err != nil {
		return nil, err
	}

	var config *engine.PuzzleConfig
	switch format {
	case FormatJSON:
		config, err = decodeJSON(data)
	case FormatYAML:
		config, err = decodeYAML(data)
	case FormatText, FormatZstd:
		config, err = engine.PuzzleConfigFromInput(id, string(data), false)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	return config, nil
}

func readFile(path, format string) ([]byte, error) {
	if format != FormatZstd {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress config file: %w", err)
	}
	return data, nil
}

func decodeJSON(data []byte) (*engine.PuzzleConfig, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := puzzleSchema.Validate(doc); err != nil {
		return nil, err
	}

	var config engine.PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

func decodeYAML(data []byte) (*engine.PuzzleConfig, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var config engine.PuzzleConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// validateDocument checks a decoded document against the puzzle schema.
// YAML scalars are normalised through JSON first.
func validateDocument(doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalise config: %w", err)
	}
	var normalised interface{}
	if err := json.Unmarshal(raw, &normalised); err != nil {
		return fmt.Errorf("failed to normalise config: %w", err)
	}
	return puzzleSchema.Validate(normalised)
}

// ListConfigs returns information about all available configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, format := splitName(entry.Name())
		if format == "" {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid configs
			m.log.WithError(err).WithField("file", entry.Name()).Warn("skipping config")
			continue
		}

		configs = append(configs, describe(entry.Name(), id, format, config))
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// describe summarises a validated config for listings
func describe(filename, id, format string, config *engine.PuzzleConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Format:      format,
		Moves:       len(engine.DecodeMoves(config.Moves)),
		Wide:        config.Wide || config.IsWideLayout(),
	}
	if grid, err := engine.BuildGrid(config.Layout, config.Wide); err == nil {
		info.Width = grid.Width()
		info.Height = grid.Height()
		info.Boxes = len(engine.BoxPositions(grid))
	}
	return info
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.PuzzleConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached configuration and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.PuzzleConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks larger_example, then the first valid config, then a built-in board
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigID)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = createMinimalConfig()
		} else if config, err = m.LoadConfig(configs[0].Filename); err != nil {
			config = createMinimalConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a configuration and writes it to disk.
// Names ending in .yaml or .yml are written as YAML, everything else as JSON.
func (m *Manager) SaveConfig(name string, config *engine.PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id, format := splitName(name)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	var (
		data   []byte
		suffix string
		err    error
	)
	switch format {
	case FormatYAML:
		suffix = ".yaml"
		if strings.HasSuffix(name, ".yml") {
			suffix = ".yml"
		}
		data, err = yaml.Marshal(config)
	case "", FormatJSON:
		suffix = ".json"
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("%w: cannot save %s configs", ErrInvalidConfig, format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, id+suffix)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	m.log.WithField("file", id+suffix).Info("config saved")
	return nil
}

// createMinimalConfig creates a minimal valid configuration
func createMinimalConfig() *engine.PuzzleConfig {
	return &engine.PuzzleConfig{
		Name:        "default",
		Description: "Default minimal warehouse",
		Layout: []string{
			"#######",
			"#.....#",
			"#.@O..#",
			"#.....#",
			"#######",
		},
		Moves: ">>^<<v",
	}
}

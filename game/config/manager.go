package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
)

var (
	ErrConfigNotFound = service.ErrCatalogNotFound
	ErrInvalidConfig  = service.ErrInvalidCatalog
)

// DefaultCatalogName is preferred as the default catalog when present
const DefaultCatalogName = "classic"

// Manager handles catalog loading and caching
type Manager struct {
	configDir     string
	defaultName   string
	defaultConfig *engine.CatalogConfig
	configs       map[string]*engine.CatalogConfig
	logger        zerolog.Logger
	mu            sync.RWMutex
}

// NewManager creates a new catalog manager
func NewManager(configDir string, logger zerolog.Logger) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.CatalogConfig),
		logger:    logger.With().Str("component", "catalogs").Logger(),
	}

	m.loadDefaultConfig()
	return m, nil
}

// catalogID strips a known catalog extension from name
func catalogID(name string) string {
	for _, ext := range engine.CatalogExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// LoadCatalog loads a catalog by name, with or without its file extension
func (m *Manager) LoadCatalog(name string) (*engine.CatalogConfig, error) {
	id := catalogID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	for _, ext := range engine.CatalogExtensions {
		configPath := filepath.Join(m.configDir, id+ext)

		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}

		config, err := engine.DecodeCatalogConfig(data, ext)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id+ext, err)
		}

		m.configs[id] = config
		m.logger.Debug().Str("catalog", id).Str("file", configPath).Int("boards", len(config.Boards)).Msg("catalog loaded")
		return config, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
}

// ListCatalogs returns information about all valid catalogs in the directory
func (m *Manager) ListCatalogs() ([]*service.CatalogInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var catalogs []*service.CatalogInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isCatalogFile(entry.Name()) {
			continue
		}

		id := catalogID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		config, err := m.LoadCatalog(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid catalog")
			continue
		}

		catalogs = append(catalogs, &service.CatalogInfo{
			Filename:    entry.Name(),
			CatalogID:   id,
			Name:        config.Name,
			Description: config.Description,
			Rows:        config.Rows,
			Cols:        config.Cols,
			Boards:      len(config.Boards),
		})
	}

	sort.Slice(catalogs, func(i, j int) bool {
		return catalogs[i].CatalogID < catalogs[j].CatalogID
	})
	return catalogs, nil
}

func isCatalogFile(name string) bool {
	ext := filepath.Ext(name)
	for _, known := range engine.CatalogExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// GetDefault returns the default catalog
func (m *Manager) GetDefault() *engine.CatalogConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultName returns the identifier of the default catalog
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default catalog by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadCatalog(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = catalogID(name)
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached catalogs and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.CatalogConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, else the first valid catalog, else the
// built-in one
func (m *Manager) loadDefaultConfig() {
	name := DefaultCatalogName
	config, err := m.LoadCatalog(name)
	if err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			m.logger.Warn().Err(err).Str("catalog", name).Msg("default catalog is invalid")
		}

		catalogs, listErr := m.ListCatalogs()
		if listErr == nil && len(catalogs) > 0 {
			name = catalogs[0].CatalogID
			config, err = m.LoadCatalog(name)
		}
		if config == nil || err != nil {
			name = "default"
			config = engine.DefaultCatalogConfig()
			m.logger.Info().Msg("no catalog files found, using built-in catalog")
		}
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultConfig = config
	m.mu.Unlock()
}

// Count returns the number of cached catalogs
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

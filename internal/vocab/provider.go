package vocab

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

// Provider lists and loads vocabulary configurations.
type Provider interface {
	ListConfigs(ctx context.Context) ([]string, error)
	LoadConfig(ctx context.Context, name string) (*Config, error)
}

//go:embed all:bundled
var bundledFS embed.FS

// DefaultBundledConfig is the bundled configuration used as the last resort.
const DefaultBundledConfig = "Neurobagel"

// FSProvider serves configurations from a file system laid out as one
// directory per configuration.
type FSProvider struct {
	fsys        fs.FS
	defaultName string
}

// NewBundledProvider serves the configurations embedded in the binary.
func NewBundledProvider() *FSProvider {
	sub, err := fs.Sub(bundledFS, "bundled")
	if err != nil {
		// The embed directive guarantees the directory exists
		panic(err)
	}

	return NewFSProvider(sub, DefaultBundledConfig)
}

// NewFSProvider serves configurations from fsys.
func NewFSProvider(fsys fs.FS, defaultName string) *FSProvider {
	return &FSProvider{fsys: fsys, defaultName: defaultName}
}

// DefaultName is the configuration to substitute when a requested one is unknown.
func (p *FSProvider) DefaultName() string {
	return p.defaultName
}

// ListConfigs returns the configuration directory names, sorted.
func (p *FSProvider) ListConfigs(_ context.Context) ([]string, error) {
	entries, err := fs.ReadDir(p.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list bundled configs: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

// LoadConfig reads and decodes one configuration directory.
func (p *FSProvider) LoadConfig(_ context.Context, name string) (*Config, error) {
	if name == "" || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	data, err := fs.ReadFile(p.fsys, configPath(name, configFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
		}

		return nil, fmt.Errorf("failed to read config %q: %w", name, err)
	}

	cf, err := parseConfigFile(data)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)

	for _, f := range cf.termFiles() {
		raw, err := fs.ReadFile(p.fsys, configPath(name, f))
		if err != nil {
			return nil, fmt.Errorf("%w: config %q: %v", ErrInvalidConfig, name, err)
		}

		files[f] = raw
	}

	return buildConfig(name, cf, files)
}

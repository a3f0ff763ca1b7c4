package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/pcstate/internal/interpolation"
	"github.com/pelletier/go-toml/v2"
)

// Loader handles loading configuration from TOML sources
type Loader struct {
	source  []byte
	config  *Config
	isValid bool
}

// NewLoaderFromBytes decodes TOML bytes on top of the defaults. Unknown keys
// are rejected.
func NewLoaderFromBytes(data []byte) (*Loader, error) {
	if len(data) == 0 {
		return nil, ErrNoSourceProvided
	}

	l := &Loader{source: data}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewLoaderFromReader loads configuration from an io.Reader providing TOML data
func NewLoaderFromReader(reader io.Reader) (*Loader, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data from reader: %w", err)
	}
	return NewLoaderFromBytes(data)
}

// NewLoaderFromFilePath loads configuration from a file; the extension
// selects the format and only .toml is supported.
func NewLoaderFromFilePath(filePath string) (*Loader, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	ext := filepath.Ext(filePath)
	if ext != ".toml" {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedExtension, ext)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	return NewLoaderFromBytes(data)
}

func (l *Loader) load() error {
	// check the version first so a newer file fails with a clear error
	// rather than a list of unknown keys
	var versionCheck struct {
		Version string `toml:"version"`
	}
	if err := toml.Unmarshal(l.source, &versionCheck); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if versionCheck.Version == "" {
		versionCheck.Version = VersionLatest
	}
	if versionCheck.Version != VersionLatest {
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigVer, versionCheck.Version)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(l.source))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return fmt.Errorf("%w: unknown keys: %s", ErrInvalidValue, strings.Join(keys, ", "))
		}
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}
	cfg.Version = versionCheck.Version

	if err := interpolation.InterpolateStruct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	l.config = cfg
	return nil
}

// Validate validates the loaded configuration; GetConfig returns nil until
// it succeeds.
func (l *Loader) Validate() error {
	if l.config == nil {
		return ErrNoSourceProvided
	}
	if err := l.config.Validate(); err != nil {
		l.isValid = false
		return err
	}
	l.isValid = true
	return nil
}

// GetConfig returns the validated configuration
func (l *Loader) GetConfig() *Config {
	if !l.isValid {
		return nil
	}
	return l.config
}

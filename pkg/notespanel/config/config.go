package config

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/consts"
)

type BackendType string

const (
	BackendTypeUndefined = BackendType("")
	BackendTypeAuto      = BackendType("auto")
	BackendTypeX11       = BackendType("x11")
	BackendTypeSockets   = BackendType("sockets")
)

func (t BackendType) String() string {
	return string(t)
}

// Set implements pflag.Value.
func (t *BackendType) Set(s string) error {
	switch BackendType(s) {
	case BackendTypeAuto, BackendTypeX11, BackendTypeSockets:
		*t = BackendType(s)
		return nil
	default:
		return fmt.Errorf("unknown backend '%s', expected one of: auto, x11, sockets", s)
	}
}

func (t *BackendType) Type() string {
	return "backend"
}

type WindowConfig struct {
	Name string `yaml:"name"`
}

type Config struct {
	// Display overrides $DISPLAY.
	Display         string         `yaml:"display,omitempty"`
	Backend         BackendType    `yaml:"backend"`
	SelectionPrefix string         `yaml:"selection_prefix"`
	Command         string         `yaml:"command"`
	RuntimeDir      string         `yaml:"runtime_dir,omitempty"`
	Windows         []WindowConfig `yaml:"windows"`
}

func DefaultConfig() Config {
	return Config{
		Backend:         BackendTypeAuto,
		SelectionPrefix: consts.DefaultSelectionPrefix,
		Command:         consts.DefaultCommand,
		Windows: []WindowConfig{
			{Name: consts.DefaultWindowName},
		},
	}
}

// ApplyDefaults fills in the fields left empty in the config file.
func (cfg *Config) ApplyDefaults() {
	def := DefaultConfig()
	if cfg.Backend == BackendTypeUndefined {
		cfg.Backend = def.Backend
	}
	if cfg.SelectionPrefix == "" {
		cfg.SelectionPrefix = def.SelectionPrefix
	}
	if cfg.Command == "" {
		cfg.Command = def.Command
	}
}

func ReadConfigFromPath(
	cfgPath string,
	cfg *Config,
) error {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", cfgPath, err)
	}

	if _, err = cfg.Read(b); err != nil {
		return fmt.Errorf("unable to parse file '%s': %w", cfgPath, err)
	}
	cfg.ApplyDefaults()
	return nil
}

func ReadOrCreateConfigFile(
	ctx context.Context,
	cfgPath string,
) (*Config, error) {
	_, err := os.Stat(cfgPath)
	switch {
	case err == nil:
		cfg := Config{}
		err := ReadConfigFromPath(cfgPath, &cfg)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	case os.IsNotExist(err):
		logger.Debugf(ctx, "cannot find file '%s', creating", cfgPath)
		cfg := DefaultConfig()
		err := WriteConfigToPath(ctx, cfgPath, cfg)
		if err != nil {
			logger.Errorf(ctx, "unable to write config to path '%s': %v", cfgPath, err)
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unable to access file '%s': %w", cfgPath, err)
	}
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	pathNew := cfgPath + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return fmt.Errorf("unable to open the config file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write config to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, cfgPath)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, cfgPath, err)
	}
	logger.Infof(ctx, "wrote to '%s' config %#+v", cfgPath, cfg)
	return nil
}

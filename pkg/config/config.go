package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is a prefix of ENV variables related to packit settings,
// e.g. PACKIT_CHUNK_SIZE or PACKIT_LOGGER_LEVEL.
const EnvPrefix = "PACKIT"

const separator = "."

// Configuration keys.
const (
	DirKey       = "dir"
	OutputKey    = "output"
	SortKey      = "sort"
	AtomicKey    = "atomic"
	LZ4Key       = "lz4"
	ChunkSizeKey = "chunk_size"
	ProgressKey  = "progress"
	ListKey      = "list"
	LogLevelKey  = "logger.level"
)

const (
	// ChunkSizeDefault is a default size of the content copy buffer.
	ChunkSizeDefault = 32 << 10
	// ChunkSizeMax is the largest accepted copy buffer.
	ChunkSizeMax = 64 << 20
	// LogLevelDefault is a default logger level.
	LogLevelDefault = "info"
)

// Config is a validated set of pack settings.
type Config struct {
	Dir    string
	Output string

	Sort      bool
	Atomic    bool
	LZ4       bool
	ChunkSize int

	Progress bool
	List     bool

	LogLevel string
}

// NewViper returns a viper instance reading PACKIT_* environment
// variables with all defaults set.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(separator, "_"))

	v.SetDefault(SortKey, true)
	v.SetDefault(AtomicKey, false)
	v.SetDefault(LZ4Key, false)
	v.SetDefault(ChunkSizeKey, ChunkSizeDefault)
	v.SetDefault(ProgressKey, false)
	v.SetDefault(ListKey, true)
	v.SetDefault(LogLevelKey, LogLevelDefault)

	return v
}

// ReadConfigFile reads settings from the file at path. With an empty path
// $HOME/.config/packit.{yaml,json,toml} is tried and silently skipped when
// missing.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".config"))
	v.SetConfigName("packit")

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// Load builds Config from v and checks it.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Dir:      v.GetString(DirKey),
		Output:   v.GetString(OutputKey),
		Sort:     v.GetBool(SortKey),
		Atomic:   v.GetBool(AtomicKey),
		LZ4:      v.GetBool(LZ4Key),
		Progress: v.GetBool(ProgressKey),
		List:     v.GetBool(ListKey),
		LogLevel: v.GetString(LogLevelKey),
	}

	if c.Dir == "" {
		return nil, errors.New("missing directory to pack")
	}
	if c.Output == "" {
		return nil, errors.New("missing output file")
	}

	size, err := ParseSize(cast.ToString(v.Get(ChunkSizeKey)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ChunkSizeKey, err)
	}
	if size == 0 || size > ChunkSizeMax {
		return nil, fmt.Errorf("invalid %s: %d is out of range (0, %d]", ChunkSizeKey, size, ChunkSizeMax)
	}
	c.ChunkSize = int(size)

	if c.LogLevel == "" {
		c.LogLevel = LogLevelDefault
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", LogLevelKey, err)
	}

	return c, nil
}

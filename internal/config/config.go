package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Rana718/dataorganizer/internal/types"
)

const DefaultName = "DataOrganizer"

type Config struct {
	DB            Database      `json:"db" mapstructure:"db"`
	TableSettings TableSettings `json:"table_settings" mapstructure:"table_settings"`
	Logging       Logging       `json:"logging" mapstructure:"logging"`

	// Tables maps the table id used in the table files to its spec.
	Tables map[string]*types.TableSpec `json:"-" mapstructure:"-"`
	// TableOrder lists table ids in the order they were defined.
	TableOrder []string `json:"-" mapstructure:"-"`
}

type Database struct {
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Prefix   string `json:"prefix" mapstructure:"prefix"`
	Schema   string `json:"schema" mapstructure:"schema"`
}

type TableSettings struct {
	AutoFillCTypes      []string          `json:"auto_fill_ctypes" mapstructure:"auto_fill_ctypes"`
	AllowedColumnKeys   []string          `json:"allowed_column_keys" mapstructure:"allowed_column_keys"`
	MandatoryColumnKeys []string          `json:"mandatory_column_keys" mapstructure:"mandatory_column_keys"`
	ColumnKeyTypes      map[string]string `json:"column_key_types" mapstructure:"column_key_types"`
}

type Logging struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file" mapstructure:"file"`
}

// Options locates the configuration files. Every path except ConfDir is
// relative to ConfDir.
type Options struct {
	Name            string
	ConfDir         string
	DefaultSettings string
	Secrets         string
	TableFiles      []string
}

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
	BackendSQLite   Backend = "sqlite"
)

var supportedBackends = []Backend{BackendMySQL, BackendPostgres, BackendSQLite}

var requiredDBKeys = []string{"user", "password", "database", "host", "port", "prefix"}

// Load reads the settings files with viper, overlays environment variables
// (<NAME>_DB__PASSWORD style) and parses the table files.
func Load(opts Options) (*Config, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.ConfDir == "" {
		opts.ConfDir = "conf"
	}
	if opts.DefaultSettings == "" {
		opts.DefaultSettings = "settings.toml"
	}

	files := []string{opts.DefaultSettings}
	if opts.Secrets != "" {
		files = append(files, opts.Secrets)
	}
	for _, name := range append(append([]string(nil), files...), opts.TableFiles...) {
		path := filepath.Join(opts.ConfDir, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return nil, fmt.Errorf("file %s does not exist", path)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(opts.Name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range append(requiredDBKeys, "schema") {
		if err := v.BindEnv("db." + key); err != nil {
			return nil, fmt.Errorf("failed to bind env for db.%s: %w", key, err)
		}
	}

	for i, name := range files {
		v.SetConfigFile(filepath.Join(opts.ConfDir, name))
		read := v.MergeInConfig
		if i == 0 {
			read = v.ReadInConfig
		}
		if err := read(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, key := range requiredDBKeys {
		// sqlite only needs a file and a prefix
		if cfg.DB.isSQLite() && key != "database" && key != "prefix" {
			continue
		}
		if !v.IsSet("db." + key) {
			return nil, fmt.Errorf("db.%s must be set", key)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Tables = make(map[string]*types.TableSpec)
	for _, name := range opts.TableFiles {
		if err := cfg.loadTableFile(filepath.Join(opts.ConfDir, name)); err != nil {
			return nil, err
		}
	}
	if err := cfg.validateRelations(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("table_settings.auto_fill_ctypes", []string{"SERIAL"})
	v.SetDefault("table_settings.allowed_column_keys", []string{
		"ctype", "is_primary", "is_unique", "is_nullable", "is_inserted", "default",
	})
	v.SetDefault("table_settings.mandatory_column_keys", []string{"ctype"})
	v.SetDefault("table_settings.column_key_types", map[string]string{
		"ctype":       "str",
		"is_primary":  "bool",
		"is_unique":   "bool",
		"is_nullable": "bool",
		"is_inserted": "bool",
		"default":     "str",
	})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "cli_edit.log")
}

func (c *Config) Validate() error {
	if _, err := c.DB.Backend(); err != nil {
		return err
	}
	if c.DB.Database == "" {
		return fmt.Errorf("db.database cannot be empty")
	}

	for key, typ := range c.TableSettings.ColumnKeyTypes {
		if typ != "str" && typ != "bool" {
			return fmt.Errorf("table_settings.column_key_types.%s: unsupported type %q (use str or bool)", key, typ)
		}
	}

	return nil
}

// Backend resolves the connection prefix, e.g. "postgresql+psycopg2" or "mysql".
func (d Database) Backend() (Backend, error) {
	prefix := strings.ToLower(d.Prefix)
	switch {
	case strings.Contains(prefix, "mysql"):
		return BackendMySQL, nil
	case strings.Contains(prefix, "postgres"):
		return BackendPostgres, nil
	case strings.Contains(prefix, "sqlite"):
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database prefix %q. Supported backends: %v", d.Prefix, supportedBackends)
	}
}

func (d Database) isSQLite() bool {
	backend, err := d.Backend()
	return err == nil && backend == BackendSQLite
}

// AutoFill returns a fresh set of the uppercased auto-fill ctypes.
func (c *Config) AutoFill() map[string]bool {
	set := make(map[string]bool, len(c.TableSettings.AutoFillCTypes))
	for _, ctype := range c.TableSettings.AutoFillCTypes {
		set[strings.ToUpper(ctype)] = true
	}
	return set
}

// Table returns the spec registered under id.
func (c *Config) Table(id string) (*types.TableSpec, error) {
	table, ok := c.Tables[id]
	if !ok {
		return nil, fmt.Errorf("table %s is not configured", id)
	}
	return table, nil
}

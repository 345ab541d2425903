package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Output OutputConfig `mapstructure:"output"`
	Report ReportConfig `mapstructure:"report"`
	Log    LogConfig    `mapstructure:"log"`
}

// SourceConfig 节点元数据来源配置
type SourceConfig struct {
	BaseDir       string `mapstructure:"base_dir"`
	NodeDirPrefix string `mapstructure:"node_dir_prefix"`
	NodeIDFile    string `mapstructure:"nodeid_file"`
	DeviceIDFile  string `mapstructure:"deviceid_file"`
	AddressKey    string `mapstructure:"address_key"`
	// LegacyEncodings 非UTF-8文件按 GB18030/GBK/Big5/Windows-1252/ISO-8859-1 解码
	LegacyEncodings bool `mapstructure:"legacy_encodings"`
}

// OutputConfig 聚合清单输出配置
type OutputConfig struct {
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter"`
}

// ReportConfig SQLite运行报告配置
type ReportConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

const (
	// EnvPrefix 环境变量前缀，例如 NODE_COLLECTOR_SOURCE_BASE_DIR
	EnvPrefix = "NODE_COLLECTOR"

	configName = "nodecollector"
)

// Load 使用新的viper实例加载配置
// configPath为空时搜索默认位置，找不到文件不报错；显式指定的文件必须存在
func Load(configPath string) (*Config, error) {
	v := viper.New()
	return LoadWith(v, configPath)
}

// LoadWith 使用调用方提供的viper实例加载配置，绑定到v的flag优先于文件和环境变量
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigType("yaml")

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SetDefaults 设置全部默认值，无配置文件时环境变量也能生效
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.base_dir", "/root/gaianet")
	v.SetDefault("source.node_dir_prefix", "node-")
	v.SetDefault("source.nodeid_file", "nodeid.json")
	v.SetDefault("source.deviceid_file", "deviceid.txt")
	v.SetDefault("source.address_key", "address")
	v.SetDefault("source.legacy_encodings", false)

	v.SetDefault("output.path", "nodesList.txt")
	v.SetDefault("output.delimiter", "|")

	v.SetDefault("report.enabled", false)
	v.SetDefault("report.sqlite_path", "./data/nodecollector.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "./logs/nodecollector.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)
}

// Default 仅由默认值构成的配置
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var config Config
	// 默认值均为简单标量，解码不会失败
	_ = v.Unmarshal(&config)
	return &config
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.BaseDir) == "" {
		return errors.New("source.base_dir must not be empty")
	}
	if strings.TrimSpace(c.Source.NodeIDFile) == "" || strings.TrimSpace(c.Source.DeviceIDFile) == "" {
		return errors.New("source.nodeid_file and source.deviceid_file must not be empty")
	}
	if strings.TrimSpace(c.Source.AddressKey) == "" {
		return errors.New("source.address_key must not be empty")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path must not be empty")
	}
	if c.Output.Delimiter == "" || strings.ContainsAny(c.Output.Delimiter, "\r\n") {
		return fmt.Errorf("output.delimiter %q must be non-empty and single-line", c.Output.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Output)) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("log.output %q must be one of console, file, both", c.Log.Output)
	}
	if c.Report.Enabled && strings.TrimSpace(c.Report.SQLitePath) == "" {
		return errors.New("report.sqlite_path is required when report.enabled is true")
	}
	return nil
}

// NodeDir 返回第index个节点的元数据目录
func (s SourceConfig) NodeDir(index int) string {
	return filepath.Join(s.BaseDir, fmt.Sprintf("%s%d", s.NodeDirPrefix, index))
}

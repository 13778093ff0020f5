package viper

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	spfviper "github.com/spf13/viper"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
// 设置了环境变量前缀时，PREFIX_SECTION_KEY 形式的环境变量会覆盖文件中的同名配置。
type Config struct {
	v *spfviper.Viper
}

// Option 用于调整 Config 的行为。
type Option func(v *spfviper.Viper)

// WithEnvPrefix 开启环境变量覆盖，键名中的 "." 会被替换为 "_"。
func WithEnvPrefix(prefix string) Option {
	return func(v *spfviper.Viper) {
		v.SetEnvPrefix(prefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
}

// WithDefaults 设置一组默认值，键使用 "section.key" 形式。
func WithDefaults(defaults map[string]any) Option {
	return func(v *spfviper.Viper) {
		for key, val := range defaults {
			v.SetDefault(key, val)
		}
	}
}

// New 创建一个空的 Config。
func New(opts ...Option) *Config {
	v := spfviper.New()
	for _, opt := range opts {
		opt(v)
	}
	return &Config{v: v}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断，其余扩展名视为参数错误。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		return merr.WrapErrParameterInvalidMsg("unsupported config file type %q", ext)
	}

	if err := c.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// IsSet 判断配置（文件、环境变量或默认值）中是否存在 key。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// 注意 viper 的 UnmarshalKey 不会应用环境变量覆盖，需要覆盖时请使用 Unmarshal。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.v.UnmarshalKey(key, dst)
}

package application

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lk2023060901/protomap-go/internal/network/codec"
	"github.com/lk2023060901/protomap-go/internal/network/compressor"
	"github.com/lk2023060901/protomap-go/internal/network/crypto"
	"github.com/lk2023060901/protomap-go/internal/network/framer"
	"github.com/lk2023060901/protomap-go/internal/network/serializer"
	"github.com/lk2023060901/protomap-go/pkg/log"
	"github.com/lk2023060901/protomap-go/pkg/metrics"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
	"github.com/lk2023060901/protomap-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"

	// EnvConfigPath 为指定配置文件路径的环境变量。
	EnvConfigPath = "PROTOMAP_CONFIG_FILE_PATH"
	// envPrefix 为配置项环境变量覆盖的前缀，例如 PROTOMAP_CODEC_MAXFRAMESIZE。
	envPrefix = "PROTOMAP"
)

// Config 为进程级配置。
//
//	log:
//	  level: info
//	  stdout: true
//	codec:
//	  maxFrameSize: 16777216
//	  enableCompression: true
//	  minCompressSize: 256
//	  enableEncryption: true
//	  encKey: <64 位 hex>
//	  macKey: <hex>
type Config struct {
	Log   log.Config  `mapstructure:"log"`
	Codec CodecConfig `mapstructure:"codec"`
}

// CodecConfig 描述网络编解码链路。
type CodecConfig struct {
	MaxFrameSize      uint32 `mapstructure:"maxFrameSize"`
	EnableCompression bool   `mapstructure:"enableCompression"`
	MinCompressSize   int    `mapstructure:"minCompressSize"`
	// ZstdConcurrency <= 0 时使用主机逻辑 CPU 数。
	ZstdConcurrency  int    `mapstructure:"zstdConcurrency"`
	EnableEncryption bool   `mapstructure:"enableEncryption"`
	EncKey           string `mapstructure:"encKey"`
	MacKey           string `mapstructure:"macKey"`
}

// Application 持有配置以及由配置构造出的公共依赖。
type Application struct {
	cfg     *Config
	codec   codec.Codec
	closers []func()
}

// New 创建一个未初始化的 Application。
func New() *Application {
	return &Application{}
}

// Run 解析命令行参数并完成初始化，配置文件路径优先级从低到高：
//  1. 默认：./config.yaml
//  2. 环境变量：PROTOMAP_CONFIG_FILE_PATH
//  3. 命令行：--config <path> 或 --config=<path>
func (a *Application) Run(args []string) error {
	path, err := ResolveConfigPath(args)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, props, err := log.InitLogger(&cfg.Log)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	log.ReplaceGlobals(logger, props)
	metrics.Register(prometheus.DefaultRegisterer)

	c, closer, err := BuildCodec(cfg.Codec)
	if err != nil {
		return err
	}
	a.codec = c
	a.closers = append(a.closers, closer)

	log.Info("application initialized",
		log.FieldModule("application"),
		zap.String("config", path))
	return nil
}

// Config 返回已加载的配置，Run 之前为 nil。
func (a *Application) Config() *Config {
	return a.cfg
}

// Codec 返回按配置构造的 Codec，Run 之前为 nil。
func (a *Application) Codec() codec.Codec {
	return a.codec
}

// Close 释放 Run 过程中创建的资源。
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = log.Sync()
}

// ResolveConfigPath 按优先级确定配置文件路径，args 不包含程序名。
func ResolveConfigPath(args []string) (string, error) {
	path := defaultConfigPath
	if envPath := strings.TrimSpace(os.Getenv(EnvConfigPath)); envPath != "" {
		path = envPath
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return "", merr.WrapErrParameterMissing("--config", "missing value after --config")
			}
			path = args[i+1]
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			path = val
		}
	}
	return path, nil
}

// LoadConfig 读取配置文件，PROTOMAP_<SECTION>_<KEY> 环境变量优先于文件内容。
func LoadConfig(path string) (*Config, error) {
	v := viper.New(
		viper.WithEnvPrefix(envPrefix),
		viper.WithDefaults(map[string]any{
			"log.level":             "info",
			"log.stdout":            true,
			"codec.maxFrameSize":    framer.DefaultMaxFrameSize,
			"codec.minCompressSize": 0,
		}),
	)
	if err := v.LoadFile(path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config file %s", path)
	}
	return cfg, nil
}

// BuildCodec 按配置组装 framer、serializer、compressor 与 encryptor。
// 返回的 closer 用于释放压缩器资源，总是非 nil。
func BuildCodec(cfg CodecConfig) (codec.Codec, func(), error) {
	opts := codec.Options{
		Framer:            framer.NewLengthPrefixedFramer(cfg.MaxFrameSize),
		Serializer:        serializer.MessageSerializer{},
		EnableCompression: cfg.EnableCompression,
		EnableEncryption:  cfg.EnableEncryption,
		MinCompressSize:   cfg.MinCompressSize,
	}
	closer := func() {}

	if cfg.EnableEncryption {
		encKey, err := hex.DecodeString(cfg.EncKey)
		if err != nil {
			return nil, closer, merr.WrapErrParameterInvalidMsg("codec.encKey is not hex: %v", err)
		}
		macKey, err := hex.DecodeString(cfg.MacKey)
		if err != nil {
			return nil, closer, merr.WrapErrParameterInvalidMsg("codec.macKey is not hex: %v", err)
		}
		enc, err := crypto.NewAESGCMHMAC(encKey, macKey)
		if err != nil {
			return nil, closer, err
		}
		opts.Encryptor = enc
	}

	if cfg.EnableCompression {
		zc, err := compressor.NewZstdCompressorWithConcurrency(cfg.ZstdConcurrency)
		if err != nil {
			return nil, closer, err
		}
		opts.Compressor = zc
		closer = zc.Close
	}

	c, err := codec.New(opts)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return c, closer, nil
}

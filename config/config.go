// Initializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ASSETROUTER"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Router    RouterConfig    `mapstructure:"router"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type RouterConfig struct {
	Prefix             string        `mapstructure:"prefix"`
	OriginURL          string        `mapstructure:"origin_url"`
	PassthroughURL     string        `mapstructure:"passthrough_url"`
	EdgeTTL            time.Duration `mapstructure:"edge_ttl"`
	BrowserTTL         time.Duration `mapstructure:"browser_ttl"`
	DetectFallbackType bool          `mapstructure:"detect_fallback_type"`
}

type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	PoolSize       int           `mapstructure:"pool_size"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxObjectBytes int64         `mapstructure:"max_object_bytes"`
}

type KafkaConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	GroupID   string   `mapstructure:"group_id"`
	QueueSize int      `mapstructure:"queue_size"`
}

type ProcessorConfig struct {
	StoragePath  string `mapstructure:"storage_path"`
	JPEGQuality  int    `mapstructure:"jpeg_quality"`
	MinFileBytes int64  `mapstructure:"min_file_bytes"`
	Overwrite    bool   `mapstructure:"overwrite"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads config.yaml from CONFIG_PATH (default ./config). A missing
// file is not an error: defaults and ASSETROUTER_* variables still apply.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()
	SetDefaults(viperInstance)

	viperInstance.AddConfigPath(GetEnv("CONFIG_PATH", "./config"))
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}

	if c.Router.PassthroughURL == "" {
		c.Router.PassthroughURL = hostOf(c.Router.OriginURL)
	}
	if !strings.HasSuffix(c.Router.Prefix, "/") {
		c.Router.Prefix += "/"
	}
	return &c, nil
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 25*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// Router defaults
	v.SetDefault("router.prefix", "/images/")
	v.SetDefault("router.origin_url", "https://f004.backblazeb2.com/file/thedetailshopreno-assets")
	v.SetDefault("router.passthrough_url", "")
	v.SetDefault("router.edge_ttl", 30*24*time.Hour)
	v.SetDefault("router.browser_ttl", 365*24*time.Hour)
	v.SetDefault("router.detect_fallback_type", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)
	v.SetDefault("redis.max_object_bytes", 2<<20)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "variant-misses")
	v.SetDefault("kafka.group_id", "variant-processor")
	v.SetDefault("kafka.queue_size", 256)

	// Processor defaults
	v.SetDefault("processor.storage_path", "./storage")
	v.SetDefault("processor.jpeg_quality", 85)
	v.SetDefault("processor.min_file_bytes", 10*1024)
	v.SetDefault("processor.overwrite", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// hostOf trims an origin URL down to scheme://host.
func hostOf(originURL string) string {
	scheme, rest, ok := strings.Cut(originURL, "://")
	if !ok {
		return originURL
	}
	if scheme == "file" {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// 空则 cors.Default()（允许所有来源）
	CORSOrigins []string `mapstructure:"corsorigins"`
}

type Bootstrap struct {
	Username string
	Email    string
	Password string
}

type AdminHTTP struct {
	Host      string
	Port      int
	Bootstrap Bootstrap
}

type Limits struct {
	RPS            float64
	Burst          int
	PerIPRPS       float64 `mapstructure:"periprps"`
	PerIPBurst     int     `mapstructure:"peripburst"`
	MaxInFlight    int64   `mapstructure:"maxinflight"`
	MaxBodyBytes   int64   `mapstructure:"maxbodybytes"`
	RequestTimeout int     `mapstructure:"requesttimeoutsec"`
}

type App struct {
	Name   string
	Env    string
	HTTP   HTTP
	Admin  AdminHTTP
	Limits Limits
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// 代码片段详情缓存 TTL（秒）
	SnippetTTLSec int `mapstructure:"snippetttlsec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "snippets")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("app.limits.rps", 200)
	v.SetDefault("app.limits.burst", 400)
	v.SetDefault("app.limits.periprps", 20)
	v.SetDefault("app.limits.peripburst", 40)
	v.SetDefault("app.limits.maxinflight", 300)
	v.SetDefault("app.limits.maxbodybytes", 16<<20)
	v.SetDefault("app.limits.requesttimeoutsec", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "snippets")
	v.SetDefault("jwt.accesstokenttlmin", 60)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:snippets.db?_fk=1")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("jwt.secret", "")
	// 未出现在文件里的 key 需要默认值，AutomaticEnv 才能在 Unmarshal 时生效
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snippetttlsec", 300)
	v.SetDefault("app.admin.bootstrap.username", "")
	v.SetDefault("app.admin.bootstrap.email", "")
	v.SetDefault("app.admin.bootstrap.password", "")
}

// Read 读取 YAML + APP_ 前缀环境变量（如 APP_JWT_SECRET）
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./configs/config.local.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load 启动期使用：失败直接退出
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return c
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt.secret must be at least 16 bytes")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("jwt.accessTokenTTLMin must be positive")
	}
	return nil
}

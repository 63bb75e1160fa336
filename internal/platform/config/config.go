package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Judge    JudgeConfig    `mapstructure:"judge"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode           string   `mapstructure:"mode"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	// IdentitySecret 是签发身份Cookie的HMAC密钥（base64或原文，至少32字节）。
	// 留空时启动期会生成随机密钥，仅适合开发环境。
	IdentitySecret string `mapstructure:"identitySecret"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver      string      `mapstructure:"driver"`
	SqlitePath  string      `mapstructure:"sqlitePath"`
	PostgresDSN string      `mapstructure:"postgresDSN"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GameConfig 定义了回合玩法相关的配置
type GameConfig struct {
	// SubmissionWindowSeconds 是每个回合从创建到截止的投稿窗口时长。
	SubmissionWindowSeconds int `mapstructure:"submissionWindowSeconds"`
	// RetentionMinutes 是回合进入终态后，原始回合与投稿数据的保留时长。
	RetentionMinutes int `mapstructure:"retentionMinutes"`
	// SweepIntervalSeconds 是清理巡查的间隔。
	SweepIntervalSeconds int `mapstructure:"sweepIntervalSeconds"`
}

// JudgeConfig 定义了AI评审相关的配置
type JudgeConfig struct {
	Provider              string  `mapstructure:"provider"`
	Model                 string  `mapstructure:"model"`
	Replicas              int     `mapstructure:"replicas"`
	Agreement             string  `mapstructure:"agreement"`
	ReplicaTimeoutSeconds int     `mapstructure:"replicaTimeoutSeconds"`
	Temperature           float32 `mapstructure:"temperature"`
}

// ResolverConfig 定义了自动结算巡查的配置
type ResolverConfig struct {
	Auto        bool `mapstructure:"auto"`
	PollSeconds int  `mapstructure:"pollSeconds"`
	MaxAttempts int  `mapstructure:"maxAttempts"`
}

// SubmissionWindow 返回投稿窗口的time.Duration形式。
func (g GameConfig) SubmissionWindow() time.Duration {
	return time.Duration(g.SubmissionWindowSeconds) * time.Second
}

// Retention 返回终态数据保留时长的time.Duration形式。
func (g GameConfig) Retention() time.Duration {
	return time.Duration(g.RetentionMinutes) * time.Minute
}

// SweepInterval 返回清理巡查间隔的time.Duration形式。
func (g GameConfig) SweepInterval() time.Duration {
	return time.Duration(g.SweepIntervalSeconds) * time.Second
}

// ReplicaTimeout 返回单个评审副本的超时时长。
func (j JudgeConfig) ReplicaTimeout() time.Duration {
	return time.Duration(j.ReplicaTimeoutSeconds) * time.Second
}

// PollInterval 返回自动结算巡查的间隔。
func (r ResolverConfig) PollInterval() time.Duration {
	return time.Duration(r.PollSeconds) * time.Second
}

// setDefaults 注册所有配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("server.identitySecret", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlitePath", "caption.db")
	v.SetDefault("database.postgresDSN", "")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("game.submissionWindowSeconds", 300)
	v.SetDefault("game.retentionMinutes", 1440)
	v.SetDefault("game.sweepIntervalSeconds", 300)

	v.SetDefault("judge.provider", "gemini")
	v.SetDefault("judge.model", "gemini-2.5-flash")
	v.SetDefault("judge.replicas", 3)
	v.SetDefault("judge.agreement", "majority")
	v.SetDefault("judge.replicaTimeoutSeconds", 30)
	v.SetDefault("judge.temperature", 0.7)

	v.SetDefault("resolver.auto", true)
	v.SetDefault("resolver.pollSeconds", 5)
	v.SetDefault("resolver.maxAttempts", 5)
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config") // 文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 文件类型

	// 2. 添加配置文件搜索路径
	// 可以添加多个路径，Viper会按顺序查找
	v.AddConfigPath("./config") // `config/config.yaml`
	v.AddConfigPath(".")        // `./config.yaml` (如果在根目录)

	// 3. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=":9090"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 注册默认值，配置文件缺失的键会回退到默认值
	setDefaults(v)

	// 5. 读取配置文件；文件不存在时继续使用默认值
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}

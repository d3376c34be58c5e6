package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Database DatabaseConfig        `mapstructure:"database"`
	Redis    RedisConfig           `mapstructure:"redis"`
	JWT      JWTConfig             `mapstructure:"jwt"`
	Storage  StorageConfig         `mapstructure:"storage"`
	Upload   UploadConfig          `mapstructure:"upload"`
	AI       AIConfig              `mapstructure:"ai"`
	Quota    QuotaConfig           `mapstructure:"quota"`
	Lock     LockConfig            `mapstructure:"lock"`
	Queue    QueueConfig           `mapstructure:"queue"`
	Cron     CronConfig            `mapstructure:"cron"`
	Publish  PublishConfig         `mapstructure:"publish"`
	CORS     CORSConfig            `mapstructure:"cors"`
	Log      LogConfig             `mapstructure:"log"`
	Plans    map[string]PlanConfig `mapstructure:"plans"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig Driver 取值 memory / sqlite / mysql / postgres
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"` // sqlite 文件路径
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// StorageConfig 视频文件存储，Driver 取值 local / oss / s3
type StorageConfig struct {
	Driver   string    `mapstructure:"driver"`
	LocalDir string    `mapstructure:"local_dir"`
	OSS      OSSConfig `mapstructure:"oss"`
	S3       S3Config  `mapstructure:"s3"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type UploadConfig struct {
	MaxSize          int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"` // 允许的 MIME 类型
}

type AIConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	DefaultCreativity float64 `mapstructure:"default_creativity"`
	Referer           string  `mapstructure:"referer"`
	Title             string  `mapstructure:"title"`
}

// Timeout 生成调用的超时时间，未配置时为 30 秒
func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// QuotaConfig Enforce 为 false 时保持旧的软限制行为
type QuotaConfig struct {
	Enforce bool `mapstructure:"enforce"`
}

// LockConfig Driver 取值 local / redis
type LockConfig struct {
	Driver     string `mapstructure:"driver"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type QueueConfig struct {
	PublishQueue string `mapstructure:"publish_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CronConfig struct {
	DispatchIntervalSeconds int `mapstructure:"dispatch_interval_seconds"`
	ExpireIntervalSeconds   int `mapstructure:"expire_interval_seconds"`
}

type PublishConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// PlanConfig 套餐额度，Storage 单位为 MB
type PlanConfig struct {
	Name         string  `mapstructure:"name"`
	Price        float64 `mapstructure:"price"`
	Storage      int     `mapstructure:"storage"`
	Tasks        int     `mapstructure:"tasks"`
	DurationDays int     `mapstructure:"duration_days"`
}

// DefaultPlans 与前端展示的套餐保持一致
func DefaultPlans() map[string]PlanConfig {
	return map[string]PlanConfig{
		"trial": {Name: "Trial", Price: 299, Storage: 512, Tasks: 100, DurationDays: 26},
		"basic": {Name: "Basic", Price: 500, Storage: 1024, Tasks: 100, DurationDays: 30},
		"pro":   {Name: "Pro", Price: 1000, Storage: 2048, Tasks: 100, DurationDays: 30},
		"5day":  {Name: "5-day Pack", Price: 3000, Storage: 2048, Tasks: 100, DurationDays: 60},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("upload.max_size", 100*1024*1024)
	v.SetDefault("upload.allowed_mime_types", []string{"video/mp4"})
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "google/gemma-3-12b-it:free")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.default_creativity", 0.7)
	v.SetDefault("quota.enforce", true)
	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.ttl_seconds", 10)
	v.SetDefault("queue.publish_queue", "publish_queue")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("cron.dispatch_interval_seconds", 60)
	v.SetDefault("cron.expire_interval_seconds", 3600)
	v.SetDefault("publish.timeout_seconds", 30)
	v.SetDefault("publish.max_retries", 2)
	v.SetDefault("log.level", "info")
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	// .env 中的变量通过 AutomaticEnv 生效，文件不存在时忽略
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}

	return &cfg, nil
}

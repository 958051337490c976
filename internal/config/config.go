package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	ModelPath              string        `mapstructure:"MODEL_PATH"`
	ModelIdleTimeout       time.Duration `mapstructure:"MODEL_IDLE_TIMEOUT"`
	ModelMonitorInterval   time.Duration `mapstructure:"MODEL_MONITOR_INTERVAL"`
	MemoryThresholdPercent float64       `mapstructure:"MEMORY_THRESHOLD_PERCENT"`

	SeverityModelURL string `mapstructure:"SEVERITY_MODEL_URL"`
	DepthModelURL    string `mapstructure:"DEPTH_MODEL_URL"`
	MapboxToken      string `mapstructure:"MAPBOX_TOKEN"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("MODEL_PATH", "damagenet_best.json")
	v.SetDefault("MODEL_IDLE_TIMEOUT", "5m")
	v.SetDefault("MODEL_MONITOR_INTERVAL", "30s")
	v.SetDefault("MEMORY_THRESHOLD_PERCENT", 80)
	v.SetDefault("MONGO_DATABASE", "dasper")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

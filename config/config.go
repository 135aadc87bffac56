package config

import (
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	App         App           `yaml:"app"`
	Server      Server        `yaml:"server"`
	Storage     Storage       `yaml:"storage"`
	OpenAI      OpenAI        `yaml:"openai"`
	MinIOBucket string        `yaml:"minio_bucket"`
	Objects     *minio.Client `yaml:"objects"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
}

type App struct {
	Environment string `yaml:"environment"`
	DataDir     string `yaml:"data_dir"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
}

// Storage selects the key-value backend: a local sqlite file by default,
// postgres when a DSN is configured.
type Storage struct {
	SqlitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type OpenAI struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	SttModel  string        `yaml:"stt_model"`
	ChatModel string        `yaml:"chat_model"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("app.environment", "develop")
	viper.SetDefault("app.data_dir", "data")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("storage.sqlite_path", "data/voicememo.db")
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.stt_model", "whisper-1")
	viper.SetDefault("openai.chat_model", "gpt-4o-mini")
	viper.SetDefault("openai.timeout", "90s")
	viper.SetDefault("rabbitmq.kind", "topic")
	viper.SetDefault("rabbitmq.exchange_name", "voicememo_exchange")

	// Env var overrides, e.g. OPENAI_API_KEY.
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	apiKey := viper.GetString("openai.api_key")
	if apiKey == "" {
		apiKey = viper.GetString("OPENAI_API_KEY")
	}

	cfg := &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
			DataDir:     viper.GetString("app.data_dir"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
		},
		Storage: Storage{
			SqlitePath:  viper.GetString("storage.sqlite_path"),
			PostgresDSN: viper.GetString("storage.postgres_dsn"),
		},
		OpenAI: OpenAI{
			APIKey:    apiKey,
			BaseURL:   viper.GetString("openai.base_url"),
			SttModel:  viper.GetString("openai.stt_model"),
			ChatModel: viper.GetString("openai.chat_model"),
			Timeout:   viper.GetDuration("openai.timeout"),
		},
	}

	if viper.GetString("minio.url") != "" {
		minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
			Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
			Secure: viper.GetBool("minio.secure"),
		})
		if err != nil {
			return nil, err
		}
		cfg.Objects = minioClient
		cfg.MinIOBucket = viper.GetString("minio.bucket")
	}

	if viper.GetString("rabbitmq.host") != "" {
		cfg.Queue = &RabbitMQ{
			Host:         viper.GetString("rabbitmq.host"),
			Port:         viper.GetInt("rabbitmq.port"),
			User:         viper.GetString("rabbitmq.user"),
			Pass:         viper.GetString("rabbitmq.pass"),
			ExchangeName: viper.GetString("rabbitmq.exchange_name"),
			Kind:         viper.GetString("rabbitmq.kind"),
		}
	}

	return cfg, nil
}

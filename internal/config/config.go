// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" validate:"required"`
	Telegram                `yaml:"telegram"`
	YooKassa                `yaml:"yookassa"`
	Payment                 `yaml:"payment"`
	Reminder                `yaml:"reminder"`
	Broadcasts              []Broadcast `yaml:"broadcasts" validate:"omitempty,dive"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
}

// Telegram структура для настройки бота и приватного канала
type Telegram struct {
	Token     string `yaml:"token" env:"TELEGRAM_TOKEN" validate:"required"`
	ChannelID int64  `yaml:"channel_id" env:"CHANNEL_ID" validate:"required"`
	ReturnURL string `yaml:"return_url" env-default:"https://t.me/your_bot"`
}

// YooKassa структура с учетными данными магазина в ЮKassa
type YooKassa struct {
	ShopID    string `yaml:"shop_id" env:"YOOKASSA_SHOP_ID" validate:"required"`
	SecretKey string `yaml:"secret_key" env:"YOOKASSA_SECRET_KEY" validate:"required"`
}

// Payment фиксированные параметры платежа и опроса его статуса.
// PollAttempts и PollInterval подобраны так, чтобы суммарное время опроса
// примерно совпадало с окном действия платежа ExpiryWindow.
type Payment struct {
	PriceValue   string        `yaml:"price_value" env-default:"2999.00"`
	Currency     string        `yaml:"currency" env-default:"RUB"`
	Description  string        `yaml:"description" env-default:"Подписка на приватный канал"`
	ExpiryWindow time.Duration `yaml:"expiry_window" env-default:"5m"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"10s"`
	PollAttempts int           `yaml:"poll_attempts" env-default:"30"`
}

// Reminder структура для настройки отложенного напоминания
type Reminder struct {
	Delay time.Duration `yaml:"delay" env-default:"2h"`
}

// Broadcast описывает одну рассылку: момент срабатывания и текст.
// Момент задается либо абсолютной датой At, либо задержкой After от старта
// процесса. Если задан Every, рассылка повторяется с этим интервалом.
type Broadcast struct {
	At      time.Time     `yaml:"at"`
	After   time.Duration `yaml:"after"`
	Every   time.Duration `yaml:"every"`
	Message string        `yaml:"message" validate:"required"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" validate:"required"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// HTTPServer структура для настройки сервера health/metrics
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return &cfg
}

package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Storage struct {
	Backend string `mapstructure:"backend" json:"backend"`
	Path    string `mapstructure:"path"    json:"path"`
	CartKey string `mapstructure:"cart_key" json:"cart_key"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"password"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Wishlist struct {
	BaseUrl        string `mapstructure:"base_url"        json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

type Currency struct {
	BaseCode   string `mapstructure:"base_code"   json:"base_code"`
	BaseSymbol string `mapstructure:"base_symbol" json:"base_symbol"`
	AltCode    string `mapstructure:"alt_code"    json:"alt_code"`
	AltSymbol  string `mapstructure:"alt_symbol"  json:"alt_symbol"`
	AltRate    string `mapstructure:"alt_rate"    json:"alt_rate"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Storage     `mapstructure:"storage"     json:"storage"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Wishlist    `mapstructure:"wishlist"    json:"wishlist"`
	Currency    `mapstructure:"currency"    json:"currency"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	cfg := Config{}
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}

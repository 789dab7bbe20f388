package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string `mapstructure:"PORT"`
	ContentDir      string `mapstructure:"CONTENT_DIR"`
	UploadsDir      string `mapstructure:"UPLOADS_DIR"`
	BaseURL         string `mapstructure:"BASE_URL"`
	SiteName        string `mapstructure:"SITE_NAME"`
	SiteDescription string `mapstructure:"SITE_DESCRIPTION"`
}

func LoadConfig() *Config {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Info().Msg("Config file not found; using environment variables and defaults")
		} else {
			log.Fatal().Err(err).Msg("Error reading config file")
		}
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("CONTENT_DIR", "content/posts")
	viper.SetDefault("UPLOADS_DIR", "content/uploads")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("SITE_NAME", "Inkpress")
	viper.SetDefault("SITE_DESCRIPTION", "A markdown-backed blog")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}

	return &config
}

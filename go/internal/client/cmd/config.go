package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the terminal client settings. Values come from an optional
// config file named by POKER_CONFIG and are overridden by POKER_* variables.
type Config struct {
	APIURL     string `mapstructure:"api_url"`
	GatewayURL string `mapstructure:"gateway_url"`
	StateFile  string `mapstructure:"state_file"`
	ShareURL   string `mapstructure:"share_url"`
	DeckFile   string `mapstructure:"deck_file"`
	Debug      bool   `mapstructure:"debug"`
}

func loadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("gateway_url", "ws://localhost:8081/realtime/v1/websocket")
	v.SetDefault("state_file", "poker-state.db")
	v.SetDefault("share_url", "http://localhost:5173")
	v.SetDefault("deck_file", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("POKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr    string
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Store struct {
		StatePath string `mapstructure:"state_path"` // sqlite file with the local cart
		ImagesDir string `mapstructure:"images_dir"`
	} `mapstructure:"store"`

	Admin struct {
		Secret string
	} `mapstructure:"admin"`

	Alerts struct {
		TelegramToken string  `mapstructure:"telegram_token"`
		AdminChatID   int64   `mapstructure:"admin_chat_id"`
		ThresholdKg   float64 `mapstructure:"threshold_kg"`
	} `mapstructure:"alerts"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

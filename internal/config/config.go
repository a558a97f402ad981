package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"server_port" validate:"required,numeric"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	ResultsBackend string `mapstructure:"results_backend" validate:"oneof=memory file postgres"`
	ResultsFile    string `mapstructure:"results_file" validate:"required_if=ResultsBackend file"`
	ResultsKey     string `mapstructure:"results_key" validate:"required"`

	BankSource       string        `mapstructure:"bank_source" validate:"oneof=file http postgres"`
	BankDir          string        `mapstructure:"bank_dir" validate:"required_if=BankSource file"`
	BankBaseURL      string        `mapstructure:"bank_base_url" validate:"required_if=BankSource http,omitempty,url"`
	BankFetchTimeout time.Duration `mapstructure:"bank_fetch_timeout" validate:"gte=0"`

	StrictAnswers bool          `mapstructure:"strict_answers"`
	TimerTick     time.Duration `mapstructure:"timer_tick" validate:"gt=0"`

	JWTSecret         string `mapstructure:"jwt_secret" validate:"required,min=16"`
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required_with=AdminUsername"`

	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
}

// UsesPostgres reports whether any component needs the database.
func (c *Config) UsesPostgres() bool {
	return c.ResultsBackend == "postgres" || c.BankSource == "postgres"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "vibtest")

	v.SetDefault("results_backend", "file")
	v.SetDefault("results_file", "data/vibTestResults.json")
	v.SetDefault("results_key", "vibTestResults")

	v.SetDefault("bank_source", "file")
	v.SetDefault("bank_dir", "data/questions")
	v.SetDefault("bank_base_url", "")
	v.SetDefault("bank_fetch_timeout", 15*time.Second)

	v.SetDefault("strict_answers", false)
	v.SetDefault("timer_tick", time.Second)

	v.SetDefault("jwt_secret", "super-secret-key-change-me")
	v.SetDefault("admin_username", "")
	v.SetDefault("admin_password_hash", "")

	v.SetDefault("allowed_origins", []string{"*"})
}

// Load reads an optional .env file, an optional config file from path
// (configs/config.yaml when empty) and the environment, in rising priority.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file, using environment only")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Println("config: no config file, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// secretFields are reported without their value.
var secretFields = map[string]bool{
	"JWTSecret":         true,
	"AdminPasswordHash": true,
	"DBPassword":        true,
}

func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if secretFields[fe.Field()] {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Namespace(), fe.Tag()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s' (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config:\n- %s", strings.Join(msgs, "\n- "))
}

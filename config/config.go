package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"shiftclock/compliance"
)

const (
	KeyUserID             = "user.id"
	KeyUserEmploymentType = "user.employment_type"
	KeyUserHolidayRegion  = "user.holiday_region"
	KeyDatabaseDriver     = "database.driver"
	KeyDatabaseDSN        = "database.dsn"
	KeyServerPort         = "server.port"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

type Config struct {
	User     UserConfig     `mapstructure:"user" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type UserConfig struct {
	ID             string `mapstructure:"id" validate:"required"`
	EmploymentType string `mapstructure:"employment_type" validate:"omitempty,oneof=employee contractor"`
	HolidayRegion  string `mapstructure:"holiday_region"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

// Profile resolves the compliance profile of the configured user.
func (c *Config) Profile() (compliance.Profile, error) {
	return compliance.NewProfile(c.User.EmploymentType, c.User.HolidayRegion)
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# shiftclock configuration
user:
  id: "me"
  employment_type: "employee"   # employee | contractor
  holiday_region: "de-by"       # de-* = Germany, en-uk = United Kingdom, anything else = default rules

database:
  driver: "sqlite"              # sqlite | postgres
  dsn: "./shiftclock.db"

server:
  port: 8080

log:
  level: "info"
  format: "console"             # console | json
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.User.ID = strings.TrimSpace(cfg.User.ID)
	cfg.User.EmploymentType = strings.ToLower(strings.TrimSpace(cfg.User.EmploymentType))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := cfg.Profile(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

const (
	DefaultUserID      = "me"
	DefaultDatabaseDSN = "./shiftclock.db"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyUserID, DefaultUserID)
	v.SetDefault(KeyUserEmploymentType, "employee")
	v.SetDefault(KeyUserHolidayRegion, "")
	v.SetDefault(KeyDatabaseDriver, "sqlite")
	v.SetDefault(KeyDatabaseDSN, DefaultDatabaseDSN)
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

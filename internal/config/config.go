package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	JwtTTLMinutes int `yaml:"jwt_ttl_minutes"`
	OtpLen        int `yaml:"otp_len"`
	OtpTTLMinutes int `yaml:"otp_ttl_minutes"`

	// How often the reminder scheduler sweeps for due/overdue cards.
	ReminderIntervalMinutes int `yaml:"reminder_interval_minutes"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
	Pg     Pg     `yaml:"pg"`
	Email  Email  `yaml:"email"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout_seconds"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.JwtTTLMinutes) * time.Minute
}

func (c *Config) OtpTTL() time.Duration {
	return time.Duration(c.Public.OtpTTLMinutes) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.Public.ReminderIntervalMinutes) * time.Minute
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.mustValidate()
	return cfg
}

func (c *Config) mustValidate() {
	required := map[string]bool{
		"jwt_ttl_minutes":           c.Public.JwtTTLMinutes > 0,
		"otp_len":                   c.Public.OtpLen > 0,
		"otp_ttl_minutes":           c.Public.OtpTTLMinutes > 0,
		"reminder_interval_minutes": c.Public.ReminderIntervalMinutes > 0,
		"jwt_key":                   c.Private.JwtKey != "",
	}
	for field, ok := range required {
		if !ok {
			panic(fmt.Sprintf("config field %s is missing or invalid", field))
		}
	}
}

package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Grid      GridConfig      `yaml:"grid"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	SessionSecret  string `yaml:"session_secret"`
	InternalSecret string `yaml:"internal_secret"`
}

type MessagingConfig struct {
	Kafka               KafkaConfig   `yaml:"kafka"`
	EventsTopic         string        `yaml:"events_topic"`
	Source              string        `yaml:"source"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// GridConfig tunes the city topology and the movement controller.
type GridConfig struct {
	Size                 int           `yaml:"size"`
	TickInterval         time.Duration `yaml:"tick_interval"`
	BusyPenalty          int           `yaml:"busy_penalty"`
	DeliveryBatteryDebit int           `yaml:"delivery_battery_debit"`
	StationChargeBonus   int           `yaml:"station_charge_bonus"`
	AutopilotOnBoot      bool          `yaml:"autopilot_on_boot"`
	RestaurantOrderLimit int           `yaml:"restaurant_order_limit"`
	RestaurantWindow     time.Duration `yaml:"restaurant_window"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "gridcourier.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "gridcourier",
				User:     "gridcourier",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			SessionSecret:  "change-me-in-production",
			InternalSecret: "",
		},
		Messaging: MessagingConfig{
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
			},
			EventsTopic:         "gridcourier.events",
			Source:              "gridcourier-core",
			OutboxDrainInterval: 5 * time.Second,
		},
		Grid: GridConfig{
			Size:                 9,
			TickInterval:         2 * time.Second,
			BusyPenalty:          2,
			DeliveryBatteryDebit: 5,
			StationChargeBonus:   20,
			AutopilotOnBoot:      true,
			RestaurantOrderLimit: 3,
			RestaurantWindow:     30 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }

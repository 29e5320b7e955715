package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NMEA NMEAConfig `yaml:"nmea"`
	Web  WebConfig  `yaml:"web"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

type NMEAConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Interval is the aggregation window length.
	Interval time.Duration `yaml:"interval"`

	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.NMEA.Host == "" {
		cfg.NMEA.Host = "192.168.1.1"
	}
	if cfg.NMEA.Port == 0 {
		cfg.NMEA.Port = 10110
	}
	if cfg.NMEA.Port < 0 || cfg.NMEA.Port > 65535 {
		return Config{}, fmt.Errorf("nmea.port %d out of range", cfg.NMEA.Port)
	}
	if cfg.NMEA.Interval <= 0 {
		cfg.NMEA.Interval = 5 * time.Second
	}
	if cfg.NMEA.BackoffBase <= 0 {
		cfg.NMEA.BackoffBase = 2 * time.Second
	}
	if cfg.NMEA.BackoffCap <= 0 {
		cfg.NMEA.BackoffCap = 30 * time.Second
	}
	if cfg.NMEA.BackoffCap < cfg.NMEA.BackoffBase {
		return Config{}, fmt.Errorf("nmea.backoff_cap %s is below nmea.backoff_base %s", cfg.NMEA.BackoffCap, cfg.NMEA.BackoffBase)
	}
	if cfg.NMEA.DialTimeout <= 0 {
		cfg.NMEA.DialTimeout = 2 * time.Second
	}

	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	if cfg.MQTT.Enable && cfg.MQTT.Broker == "" {
		return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "helmlink"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "helmlink/sample"
	}

	return cfg, nil
}

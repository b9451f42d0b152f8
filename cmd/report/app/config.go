package app

import (
	"errors"
	"flag"
)

type Config struct {
	DBPath    string
	DeviceID  string
	SessionID string
	Verbose   bool
}

func NewConfig() *Config {
	return &Config{}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	flag.StringVar(&c.DBPath, "db", "", "Path to the recording database file")
	flag.StringVar(&c.DeviceID, "d", "", "Limit the report to a single device ID")
	flag.StringVar(&c.SessionID, "s", "", "Show a single session, including its progress snapshots")
	flag.BoolVar(&c.Verbose, "verbose", false, "Include progress snapshots for each session")
	flag.Parse()

	if c.DBPath == "" {
		flag.Usage()
		return nil, errors.New("db path is required")
	}
	return c, nil
}

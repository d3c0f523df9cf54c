// SPDX-License-Identifier: Apache-2.0

// Package config loads the runner's database connection settings exclusively
// from the environment. There is deliberately no fallback config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DB holds the five environment-sourced connection settings the runner needs.
type DB struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

func init() {
	viper.SetEnvPrefix("FLUENT_DB")
	viper.AutomaticEnv()
}

// LoadDB reads FLUENT_DB_HOST/PORT/NAME/USER/PASSWORD from the environment.
// A missing host or name is a configuration error, since neither has a
// meaningful default for a real database.
func LoadDB() (DB, error) {
	cfg := DB{
		Host:     viper.GetString("HOST"),
		Port:     viper.GetInt("PORT"),
		Name:     viper.GetString("NAME"),
		User:     viper.GetString("USER"),
		Password: viper.GetString("PASSWORD"),
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.Host == "" {
		return DB{}, fmt.Errorf("config: FLUENT_DB_HOST is required")
	}
	if cfg.Name == "" {
		return DB{}, fmt.Errorf("config: FLUENT_DB_NAME is required")
	}
	return cfg, nil
}

// URL renders the connection string lib/pq expects.
func (c DB) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

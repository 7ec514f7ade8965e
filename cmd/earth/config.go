// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/projection"
)

// config is the resolved configuration of a command: flags override
// EARTH_ variables, which override the config file.
type config struct {
	Projection  string  `mapstructure:"projection"`
	Orientation string  `mapstructure:"orientation"`
	Width       int     `mapstructure:"width"`
	Height      int     `mapstructure:"height"`
	Grid        string  `mapstructure:"grid"`
	Source      string  `mapstructure:"source"`
	Key         string  `mapstructure:"key"`
	Scale       string  `mapstructure:"scale"`
	Alpha       int     `mapstructure:"alpha"`
	Date        string  `mapstructure:"date"`
	Night       float64 `mapstructure:"night"`
	Engine      string  `mapstructure:"engine"`
	Listen      string  `mapstructure:"listen"`
	LogLevel    string  `mapstructure:"log-level"`
}

// addConfigFlags declares the flags shared by all commands.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("projection", "orthographic", "projection family")
	fs.String("orientation", "", `view orientation "lon,lat,scale"`)
	fs.Int("width", 800, "view width in pixels")
	fs.Int("height", 600, "view height in pixels")
	fs.String("grid", "", "grid file (JSON records or a global raster image)")
	fs.String("source", "", "base URL to load grids from")
	fs.String("key", "", "grid key under --source")
	fs.String("scale", "temp", "color scale: "+strings.Join(earth.ScaleNames(), ", "))
	fs.Int("alpha", earth.DefaultOverlayAlpha, "overlay opacity 1-255")
	fs.String("date", "", `shade the night side at this RFC 3339 time, or "now"`)
	fs.Float64("night", earth.DefaultNightLevel, "light kept on the night side")
	fs.String("engine", "auto", "rendering engine: auto, gpu or cpu")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
}

// initConfig binds flags, the environment and the optional config file to v.
func initConfig(v *viper.Viper, file string, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	v.SetEnvPrefix("EARTH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("earth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("earth: config: %w", err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (config, error) {
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("earth: config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("earth: view %dx%d must be positive", cfg.Width, cfg.Height)
	}
	if cfg.Alpha < 1 || cfg.Alpha > 255 {
		return cfg, fmt.Errorf("earth: alpha %d out of range 1-255", cfg.Alpha)
	}
	return cfg, nil
}

func (c config) view() earth.View {
	return earth.View{Width: c.Width, Height: c.Height}
}

func (c config) family() (projection.Family, error) {
	return projection.ParseFamily(c.Projection)
}

func (c config) engineMode() (earth.EngineMode, error) {
	return earth.ParseEngineMode(c.Engine)
}

// terminator returns the instant to shade for, zero when shading is off.
func (c config) terminator() (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(c.Date)) {
	case "":
		return time.Time{}, nil
	case "now":
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("earth: date: %w", err)
	}
	return t, nil
}

// setLogger installs a text logger on stderr at the configured level.
func (c config) setLogger() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("earth: log level: %w", err)
	}
	earth.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

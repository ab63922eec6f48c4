// Package config assembles the application options. Sources are applied in
// order, later ones winning: built-in defaults, the JSON config file, command
// line flags, environment variables. A .env file in the working directory is
// loaded into the environment first without overriding variables already set.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// ResultHostname is the base URL short links are built on.
	ResultHostname string `json:"base_url"`

	// FilePath is the path to the journal file of the file backend.
	FilePath string `json:"file_storage_path"`

	// DatabaseDSN selects the PostgreSQL backend.
	DatabaseDSN string `json:"database_dsn"`

	// SQLitePath selects the SQLite backend.
	SQLitePath string `json:"sqlite_path"`

	// RedisAddr enables the resolve cache.
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	EnablePprof bool `json:"enable_pprof"`
	EnableHTTPS bool `json:"enable_https"`

	// TrustedSubnet is a CIDR allowed to read the admin listing. Empty means any.
	TrustedSubnet string `json:"trusted_subnet"`

	LogLevel string `json:"log_level"`

	ShortCodeLength int `json:"short_code_length"`
	MaxAttempts     int `json:"max_attempts"`

	JWTSecret     string        `json:"jwt_secret"`
	TokenTTL      time.Duration `json:"-"`
	AdminUsername string        `json:"admin_username"`
	AdminPassword string        `json:"admin_password"`

	// Config is the path of the JSON config file.
	Config string `json:"-"`
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		Port:            "localhost:8080",
		ResultHostname:  "http://localhost:8080",
		LogLevel:        "info",
		ShortCodeLength: 6,
		MaxAttempts:     10,
		JWTSecret:       "change-me",
		TokenTTL:        24 * time.Hour,
		AdminUsername:   "admin",
		AdminPassword:   "admin123",
	}
}

// Parse builds Options from os.Args and the environment.
func Parse() (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return ParseArgs(os.Args[0], os.Args[1:])
}

// ParseArgs builds Options from args and the environment.
func ParseArgs(name string, args []string) (*Options, error) {
	options := Default()

	// The config file may itself be named by a flag, so flags are parsed
	// twice: once to find the file, once on top of its values.
	probe := flag.NewFlagSet(name, flag.ContinueOnError)
	bind(probe, Default())
	if err := probe.Parse(args); err != nil {
		return nil, err
	}
	cfgPath := probe.Lookup("c").Value.String()
	if v, ok := os.LookupEnv("CONFIG"); ok && v != "" {
		cfgPath = v
	}

	if cfgPath != "" {
		if err := loadFile(cfgPath, options); err != nil {
			return nil, err
		}
	}

	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	bind(fset, options)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	options.Config = cfgPath

	if err := applyEnv(options); err != nil {
		return nil, err
	}

	return options, nil
}

func bind(fset *flag.FlagSet, o *Options) {
	fset.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fset.StringVar(&o.ResultHostname, "b", o.ResultHostname, "result base url")
	fset.StringVar(&o.FilePath, "f", o.FilePath, "path to storage file")
	fset.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "postgres dsn")
	fset.StringVar(&o.SQLitePath, "q", o.SQLitePath, "sqlite database path")
	fset.StringVar(&o.RedisAddr, "r", o.RedisAddr, "redis address for the resolve cache")
	fset.BoolVar(&o.EnablePprof, "p", o.EnablePprof, "enable pprof")
	fset.BoolVar(&o.EnableHTTPS, "s", o.EnableHTTPS, "enable https")
	fset.StringVar(&o.TrustedSubnet, "t", o.TrustedSubnet, "trusted subnet (CIDR) for admin listing")
	fset.StringVar(&o.LogLevel, "v", o.LogLevel, "log level")
	fset.IntVar(&o.ShortCodeLength, "l", o.ShortCodeLength, "short code length")
	fset.IntVar(&o.MaxAttempts, "m", o.MaxAttempts, "max code generation attempts")
	fset.StringVar(&o.JWTSecret, "k", o.JWTSecret, "jwt signing key")
	fset.DurationVar(&o.TokenTTL, "token-ttl", o.TokenTTL, "admin token lifetime")
	fset.StringVar(&o.Config, "c", o.Config, "path to json config")
}

func loadFile(p string, o *Options) error {
	content, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("read config %s: %w", p, err)
	}

	if err := json.Unmarshal(content, o); err != nil {
		return fmt.Errorf("parse config %s: %w", p, err)
	}

	return nil
}

func applyEnv(o *Options) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &o.Port,
		"BASE_URL":          &o.ResultHostname,
		"FILE_STORAGE_PATH": &o.FilePath,
		"DATABASE_DSN":      &o.DatabaseDSN,
		"SQLITE_PATH":       &o.SQLitePath,
		"REDIS_ADDR":        &o.RedisAddr,
		"REDIS_PASSWORD":    &o.RedisPassword,
		"TRUSTED_SUBNET":    &o.TrustedSubnet,
		"LOG_LEVEL":         &o.LogLevel,
		"JWT_SECRET":        &o.JWTSecret,
		"ADMIN_USERNAME":    &o.AdminUsername,
		"ADMIN_PASSWORD":    &o.AdminPassword,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ENABLE_HTTPS": &o.EnableHTTPS,
		"ENABLE_PPROF": &o.EnablePprof,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"REDIS_DB":          &o.RedisDB,
		"SHORT_CODE_LENGTH": &o.ShortCodeLength,
		"MAX_ATTEMPTS":      &o.MaxAttempts,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		o.TokenTTL = d
	}

	return nil
}

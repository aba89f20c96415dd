package main

import (
	"flag"
	"os"
	"strconv"
)

// Config holds runtime settings for the server binary. Values come from
// defaults, then environment, then command-line flags; later sources
// take precedence.
type Config struct {
	Addr       string
	DSN        string
	SigningKey string
	TokenExp   int
	Issuer     string
	Debug      bool
	Seed       bool
}

// GetSigningKey implements miniusers.Config
func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

// GetTokenExpiration implements miniusers.Config, in hours
func (c *Config) GetTokenExpiration() int {
	return c.TokenExp
}

// GetIssuer implements miniusers.Config
func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) loadDefaults() {
	c.Addr = ":4000"
	c.SigningKey = "devsecret"
	c.TokenExp = 24
	c.Issuer = "miniusers"
}

func (c *Config) loadEnv() {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SQLITE_DSN"); v != "" {
		c.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.SigningKey = v
	}
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TokenExp = n
		}
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.Issuer = v
	}
}

func (c *Config) loadFlags(args []string) error {
	fs := flag.NewFlagSet("miniusers", flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "sqlite DSN (required)")
	fs.StringVar(&c.SigningKey, "signing-key", c.SigningKey, "token signing secret")
	fs.IntVar(&c.TokenExp, "token-ttl", c.TokenExp, "token lifetime in hours")
	fs.StringVar(&c.Issuer, "issuer", c.Issuer, "token issuer claim")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "verbose request logging")
	fs.BoolVar(&c.Seed, "seed", c.Seed, "create the demo account on boot")
	return fs.Parse(args)
}

// LoadConfig builds the effective configuration.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.loadDefaults()
	cfg.loadEnv()
	if err := cfg.loadFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

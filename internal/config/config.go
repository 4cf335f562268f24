package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL se antepone al path original al armar el return-path del
		// guest redirect (%1).
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Admin struct {
		// APIKey protege las rutas /api/admin/*. Vacío = rutas deshabilitadas.
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Storage struct {
		Postgres struct {
			DSN             string `yaml:"dsn"`
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Domain     string `yaml:"domain"`
		Secure     bool   `yaml:"secure"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`

	// Bridge es la semilla estática de los settings del bridge. Los valores
	// no vacíos pisan los defaults; lo que esté en el settings store pisa a
	// ambos en cada reload.
	Bridge struct {
		Name                  string `yaml:"name"`
		CookieName            string `yaml:"cookie_name"`
		CookieDomain          string `yaml:"cookie_domain"`
		Secret                string `yaml:"secret"`
		Behaviour             string `yaml:"behaviour"` // trust | verify
		PayloadID             string `yaml:"payload_id"`
		PayloadEmail          string `yaml:"payload_email"`
		PayloadUsername       string `yaml:"payload_username"`
		PayloadFirstName      string `yaml:"payload_first_name"`
		PayloadLastName       string `yaml:"payload_last_name"`
		PayloadPicture        string `yaml:"payload_picture"`
		PayloadParent         string `yaml:"payload_parent"`
		ExchangeTokenEndpoint string `yaml:"exchange_token_endpoint"`
		LogoutEndpoint        string `yaml:"logout_endpoint"`
		GuestRedirect         string `yaml:"guest_redirect"`
	} `yaml:"bridge"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sid"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "12h"
	}
	if c.Storage.Postgres.MaxOpenConns == 0 {
		c.Storage.Postgres.MaxOpenConns = 5
	}
	if c.Storage.Postgres.MinConns == 0 {
		c.Storage.Postgres.MinConns = 2
	}
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		c.Storage.Postgres.ConnMaxLifetime = "30m"
	}

	c.applyEnvOverrides()

	// validate string durations
	for _, d := range []string{
		c.Cache.Memory.DefaultTTL,
		c.Session.TTL,
		c.Storage.Postgres.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// SessionTTL retorna el TTL de sesión ya parseado.
// Load valida el string, así que acá no puede fallar.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Session.TTL)
	return d
}

// BridgeSeed retorna la semilla estática del bridge como mapa plano, con las
// mismas claves que usa el settings store. Los vacíos se omiten para que no
// pisen los defaults en el merge.
func (c *Config) BridgeSeed() map[string]string {
	seed := map[string]string{
		settings.KeyName:             c.Bridge.Name,
		settings.KeyCookieName:       c.Bridge.CookieName,
		settings.KeyCookieDomain:     c.Bridge.CookieDomain,
		settings.KeySecret:           c.Bridge.Secret,
		settings.KeyBehaviour:        c.Bridge.Behaviour,
		settings.KeyPayloadID:        c.Bridge.PayloadID,
		settings.KeyPayloadEmail:     c.Bridge.PayloadEmail,
		settings.KeyPayloadUsername:  c.Bridge.PayloadUsername,
		settings.KeyPayloadFirstName: c.Bridge.PayloadFirstName,
		settings.KeyPayloadLastName:  c.Bridge.PayloadLastName,
		settings.KeyPayloadPicture:   c.Bridge.PayloadPicture,
		settings.KeyPayloadParent:    c.Bridge.PayloadParent,
		settings.KeyExchangeEndpoint: c.Bridge.ExchangeTokenEndpoint,
		settings.KeyLogoutEndpoint:   c.Bridge.LogoutEndpoint,
		settings.KeyGuestRedirect:    c.Bridge.GuestRedirect,
	}
	for k, v := range seed {
		if strings.TrimSpace(v) == "" {
			delete(seed, k)
		}
	}
	return seed
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = strings.TrimRight(v, "/")
	}

	// ADMIN
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}

	// STORAGE
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DOMAIN"); ok {
		c.Session.Domain = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	// BRIDGE (semilla)
	if v, ok := getEnvStr("BRIDGE_NAME"); ok {
		c.Bridge.Name = v
	}
	if v, ok := getEnvStr("BRIDGE_COOKIE_NAME"); ok {
		c.Bridge.CookieName = v
	}
	if v, ok := getEnvStr("BRIDGE_COOKIE_DOMAIN"); ok {
		c.Bridge.CookieDomain = v
	}
	if v, ok := getEnvStr("BRIDGE_SECRET"); ok {
		c.Bridge.Secret = v
	}
	if v, ok := getEnvStr("BRIDGE_BEHAVIOUR"); ok {
		c.Bridge.Behaviour = v
	}
	if v, ok := getEnvStr("BRIDGE_EXCHANGE_TOKEN_ENDPOINT"); ok {
		c.Bridge.ExchangeTokenEndpoint = v
	}
	if v, ok := getEnvStr("BRIDGE_LOGOUT_ENDPOINT"); ok {
		c.Bridge.LogoutEndpoint = v
	}
	if v, ok := getEnvStr("BRIDGE_GUEST_REDIRECT"); ok {
		c.Bridge.GuestRedirect = v
	}
}

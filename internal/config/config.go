package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// AuthSalt es el salt secreto del proceso; se carga al iniciar y no cambia.
	AuthSalt                 string        `env:"AUTH_SALT,required,notEmpty"`
	RememberTokenSecret      string        `env:"REMEMBER_TOKEN_SECRET"`
	SessionIdleTimeout       time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
	RememberTokenTTL         time.Duration `env:"REMEMBER_TOKEN_TTL" envDefault:"336h"`
	AdminSessionsNeverExpire bool          `env:"ADMIN_SESSIONS_NEVER_EXPIRE" envDefault:"false"`
	BcryptCost               int           `env:"BCRYPT_COST" envDefault:"10"`

	SessionCookieName  string `env:"SESSION_COOKIE_NAME" envDefault:"_session_id"`
	RememberCookieName string `env:"REMEMBER_COOKIE_NAME" envDefault:"auth_token"`
	CookieSecure       bool   `env:"COOKIE_SECURE" envDefault:"false"`

	DefaultLandingPath string `env:"DEFAULT_LANDING_PATH" envDefault:"/"`
	LoginPath          string `env:"LOGIN_PATH" envDefault:"/login"`
	SignupPath         string `env:"SIGNUP_PATH" envDefault:"/users/new"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"true"`
}

var (
	ErrInvalidIdleTimeout = errors.New("session idle timeout must be at least one minute")
	ErrInvalidTokenTTL    = errors.New("remember token ttl must be positive")
	ErrInvalidPoolSize    = errors.New("db pool sizes must satisfy 0 <= min <= max and max > 0")
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa los valores que el core de autenticacion necesita.
func (c *Config) Validate() error {
	// El aviso de login expresa la ventana en minutos u horas.
	if c.SessionIdleTimeout < time.Minute {
		return ErrInvalidIdleTimeout
	}
	if c.RememberTokenTTL <= 0 {
		return ErrInvalidTokenTTL
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return ErrInvalidPoolSize
	}
	return nil
}

// TokenSecret devuelve la clave de firma de los remember tokens.
func (c *Config) TokenSecret() string {
	if c.RememberTokenSecret != "" {
		return c.RememberTokenSecret
	}
	return c.AuthSalt
}

package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// storage & ledger backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type (
	Config struct {
		Build    string
		Env      string // DEV (local; default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName          string
		SecretKey        string
		defaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		OTP      OTPConfig
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Backend       string // postgres | memory
		Engine        string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		Name          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		PoolSize int
	}

	OTPConfig struct {
		Backend              string // memory | redis
		KeyPrefix            string
		RegistrationTTL      time.Duration
		LoginTTL             time.Duration
		ChildVerificationTTL time.Duration
		ChildLinkTTL         time.Duration
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

func (db DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", db.Host, db.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "VK Publications")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.backend", BackendPostgres)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.user", "edugate")
	v.SetDefault("database.password", "edugate")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edugate")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)

	v.SetDefault("otp.backend", BackendMemory)
	v.SetDefault("otp.keyPrefix", "edugate")
	v.SetDefault("otp.registrationTTL", 3*time.Minute)
	v.SetDefault("otp.loginTTL", 2*time.Minute)
	v.SetDefault("otp.childVerificationTTL", 3*time.Minute)
	v.SetDefault("otp.childLinkTTL", 15*time.Minute)
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Env vars are prefixed with the env name, and nested keys use "_": e.g. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Build:    v.GetString("build"),
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		WorkDir:  wd,

		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),

		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Backend:       v.GetString("database.backend"),
			Engine:        v.GetString("database.engine"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			PoolSize: v.GetInt("redis.poolSize"),
		},
		OTP: OTPConfig{
			Backend:              v.GetString("otp.backend"),
			KeyPrefix:            v.GetString("otp.keyPrefix"),
			RegistrationTTL:      v.GetDuration("otp.registrationTTL"),
			LoginTTL:             v.GetDuration("otp.loginTTL"),
			ChildVerificationTTL: v.GetDuration("otp.childVerificationTTL"),
			ChildLinkTTL:         v.GetDuration("otp.childLinkTTL"),
		},
	}
}

// NewTestConfig returns the defaults with TestMode on, without touching the environment.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("debug", false)
	v.Set("testMode", true)
	return &Config{
		Build:            v.GetString("build"),
		Env:              "TEST",
		TestMode:         true,
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{Backend: BackendMemory},
		OTP: OTPConfig{
			Backend:              BackendMemory,
			KeyPrefix:            "edugate-test",
			RegistrationTTL:      v.GetDuration("otp.registrationTTL"),
			LoginTTL:             v.GetDuration("otp.loginTTL"),
			ChildVerificationTTL: v.GetDuration("otp.childVerificationTTL"),
			ChildLinkTTL:         v.GetDuration("otp.childLinkTTL"),
		},
	}
}

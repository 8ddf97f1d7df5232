package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		Build            string
		DefaultFromEmail string
		AdminEmail       string // low-attendance alert recipient
		RollbarToken     string
		SendgridApiKey   string

		Server     ServerConfig
		Database   DatabaseConfig
		Attendance AttendanceConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// AttendanceConfig is the single source of the attendance thresholds.
	// Every classification and rollup reads its cut-points from here so the
	// views cannot drift apart numerically.
	AttendanceConfig struct {
		RegularMin          int    // percentage >= RegularMin -> Regular
		IrregularMin        int    // RegularMin > percentage >= IrregularMin -> Irregular
		LowAttendanceCutoff int    // classes below this show up in the low-attendance rollup
		CriticalMargin      int    // below cutoff-margin -> Critical, else Warning
		TopLimit            int    // bounded top-N for performance rankings
		TrendWindowDays     int    // default trailing window for daily trends
		RoundingMode        string // "half-up" | "truncate"
	}
)

func (c ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Mahudhurio")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("adminEmail", "admin@localhost")
	conf.SetDefault("server.host", "0.0.0.0")
	conf.SetDefault("server.port", "8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "mahudhurio")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("attendance.regularMin", 75)
	conf.SetDefault("attendance.irregularMin", 40)
	conf.SetDefault("attendance.lowAttendanceCutoff", 70)
	conf.SetDefault("attendance.criticalMargin", 20)
	conf.SetDefault("attendance.topLimit", 5)
	conf.SetDefault("attendance.trendWindowDays", 30)
	conf.SetDefault("attendance.roundingMode", "half-up")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	conf.SetDefault("env", env)
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:          conf.GetString("appName"),
		Env:              conf.GetString("env"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Build:            conf.GetString("build"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		AdminEmail:       conf.GetString("adminEmail"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Port:            conf.GetString("server.port"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Attendance: AttendanceConfig{
			RegularMin:          conf.GetInt("attendance.regularMin"),
			IrregularMin:        conf.GetInt("attendance.irregularMin"),
			LowAttendanceCutoff: conf.GetInt("attendance.lowAttendanceCutoff"),
			CriticalMargin:      conf.GetInt("attendance.criticalMargin"),
			TopLimit:            conf.GetInt("attendance.topLimit"),
			TrendWindowDays:     conf.GetInt("attendance.trendWindowDays"),
			RoundingMode:        conf.GetString("attendance.roundingMode"),
		},
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Auth    AuthConfig
	Payment PaymentConfig
	Course  CourseConfig
	Sweeper SweeperConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// PaymentConfig holds gateway credentials and the reservation window.
type PaymentConfig struct {
	Payme          PaymeConfig
	Click          ClickConfig
	CallbackSecret string
	ReservationTTL time.Duration
}

type PaymeConfig struct {
	MerchantID  string
	CheckoutURL string
	ReturnURL   string
}

type ClickConfig struct {
	ServiceID   string
	MerchantID  string
	CheckoutURL string
	ReturnURL   string
}

type CourseConfig struct {
	// FreeLessonsCount is how many leading lessons of a course are open to free-trial users.
	FreeLessonsCount int
}

type SweeperConfig struct {
	Enabled              bool
	CourseExpiryInterval time.Duration
	ReservationInterval  time.Duration
	GroupExpiryInterval  time.Duration
	PurgeInterval        time.Duration
	PurgeCanceledAfter   time.Duration
	LockTTL              time.Duration
}

func setDefaults() {
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.max_conns", 20)
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("payment.reservation_ttl", "30m")
	viper.SetDefault("payment.payme.checkout_url", "https://checkout.paycom.uz")
	viper.SetDefault("payment.click.checkout_url", "https://my.click.uz/services/pay")
	viper.SetDefault("course.free_lessons_count", 3)
	viper.SetDefault("sweeper.enabled", true)
	viper.SetDefault("sweeper.course_expiry_interval", "1h")
	viper.SetDefault("sweeper.reservation_interval", "1m")
	viper.SetDefault("sweeper.group_expiry_interval", "1h")
	viper.SetDefault("sweeper.purge_interval", "24h")
	viper.SetDefault("sweeper.purge_canceled_after", "168h")
	viper.SetDefault("sweeper.lock_ttl", "5m")
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
			SSLMode:  viper.GetString("db.sslmode"),
			MaxConns: viper.GetInt("db.max_conns"),
		},
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Env:   viper.GetString("logger.env"),
			Level: viper.GetString("logger.level"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		Payment: PaymentConfig{
			Payme: PaymeConfig{
				MerchantID:  viper.GetString("payment.payme.merchant_id"),
				CheckoutURL: viper.GetString("payment.payme.checkout_url"),
				ReturnURL:   viper.GetString("payment.payme.return_url"),
			},
			Click: ClickConfig{
				ServiceID:   viper.GetString("payment.click.service_id"),
				MerchantID:  viper.GetString("payment.click.merchant_id"),
				CheckoutURL: viper.GetString("payment.click.checkout_url"),
				ReturnURL:   viper.GetString("payment.click.return_url"),
			},
			CallbackSecret: viper.GetString("payment.callback_secret"),
			ReservationTTL: viper.GetDuration("payment.reservation_ttl"),
		},
		Course: CourseConfig{
			FreeLessonsCount: viper.GetInt("course.free_lessons_count"),
		},
		Sweeper: SweeperConfig{
			Enabled:              viper.GetBool("sweeper.enabled"),
			CourseExpiryInterval: viper.GetDuration("sweeper.course_expiry_interval"),
			ReservationInterval:  viper.GetDuration("sweeper.reservation_interval"),
			GroupExpiryInterval:  viper.GetDuration("sweeper.group_expiry_interval"),
			PurgeInterval:        viper.GetDuration("sweeper.purge_interval"),
			PurgeCanceledAfter:   viper.GetDuration("sweeper.purge_canceled_after"),
			LockTTL:              viper.GetDuration("sweeper.lock_ttl"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		viper.Set("db.port", port)
		config.DB.Port = viper.GetInt("db.port")
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
		config.Server.Port = viper.GetInt("server.port")
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if secret := os.Getenv("PAYMENT_CALLBACK_SECRET"); secret != "" {
		config.Payment.CallbackSecret = secret
	}
	if merchant := os.Getenv("PAYME_MERCHANT_ID"); merchant != "" {
		config.Payment.Payme.MerchantID = merchant
	}
	if service := os.Getenv("CLICK_SERVICE_ID"); service != "" {
		config.Payment.Click.ServiceID = service
	}
	if merchant := os.Getenv("CLICK_MERCHANT_ID"); merchant != "" {
		config.Payment.Click.MerchantID = merchant
	}

	return config, nil
}

// GetDSN returns a PostgreSQL connection URL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}

// GetMigrateDSN returns the DSN in the scheme golang-migrate's pgx/v5 driver registers.
func (c *Config) GetMigrateDSN() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}

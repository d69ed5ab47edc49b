package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	APIBaseURL   string        `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:5000"`
	APITimeout   time.Duration `yaml:"api_timeout" env:"API_TIMEOUT" env-default:"10s"`
	DBDSN        string        `yaml:"db_dsn" env:"DB_DSN" env-default:"shopfront.db"`
	TemplatesDir string        `yaml:"templates_dir" env:"TEMPLATES_DIR" env-default:"./web/templates"`

	Cart  CartConfig  `yaml:"cart"`
	Redis RedisConfig `yaml:"redis"`
	Mongo MongoConfig `yaml:"mongo"`
	NATS  NATSConfig  `yaml:"nats"`
	Log   LogConfig   `yaml:"log"`
}

type CartConfig struct {
	Backend  string        `yaml:"backend" env:"CART_BACKEND" env-default:"sqlite"` // sqlite | redis | mongo | memory
	Key      string        `yaml:"key" env:"CART_KEY" env-default:"cart"`
	TTL      time.Duration `yaml:"ttl" env:"CART_TTL" env-default:"0s"`
	Sessions int           `yaml:"sessions" env:"CART_SESSIONS" env-default:"1024"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database" env:"MONGO_DATABASE" env-default:"shopfront"`
	Collection     string        `yaml:"collection" env:"MONGO_COLLECTION" env-default:"carts"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL"` // empty: in-process feed
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	File     string `yaml:"file" env:"LOG_FILE"`
}

// Read loads configuration from the YAML file at path (if any) overlaid with
// environment variables. A missing file falls back to the environment.
func Read(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		err := cleanenv.ReadConfig(path, &cfg)
		if err == nil {
			return cfg, nil
		}
		var perr *os.PathError
		if !errors.As(err, &perr) {
			return Config{}, err
		}
		log.Printf("[config] %s not found, using environment only", path)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load() Config {
	cfg, err := Read(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	log.Printf("[config] PORT=%s API_BASE_URL=%s DB_DSN=%s CART_BACKEND=%s NATS_URL=%s LOG_FILE=%s",
		cfg.Port, cfg.APIBaseURL, cfg.DBDSN, cfg.Cart.Backend, cfg.NATS.URL, cfg.Log.File)
	return cfg
}

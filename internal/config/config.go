package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config reúne toda la configuración del servicio. Los valores salen de un
// fichero YAML opcional (CONFIG_FILE) y las variables de entorno lo pisan.
type Config struct {
	// API remota
	APIURL         string        `yaml:"dinkassa_api_url"`
	MachineID      string        `yaml:"machine_id"`
	MachineKey     string        `yaml:"machine_key"`
	IntegratorID   string        `yaml:"integrator_id"`
	LogEvents      bool          `yaml:"log_events"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Almacenamiento
	StoreDriver string `yaml:"store_driver"` // sqlite | postgres | mongo
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDB     string `yaml:"mongo_db"`

	// Infra opcional
	RedisAddr      string   `yaml:"redis_addr"` // vacío: lock en memoria
	UseKafka       bool     `yaml:"use_kafka"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	KafkaTopic     string   `yaml:"kafka_topic"`
	ClickHouseAddr string   `yaml:"clickhouse_addr"`
	ClickHouseDB   string   `yaml:"clickhouse_db"`

	// Dispatcher y relayer
	QueueSize    int           `yaml:"queue_size"`
	Workers      int           `yaml:"workers"`
	OutboxPeriod time.Duration `yaml:"outbox_period"`
	OutboxLimit  int           `yaml:"outbox_limit"`
	HTTPPort     string        `yaml:"http_port"`
	LogLevel     string        `yaml:"log_level"`

	// Metadatos
	MetaKeyPrefix         string        `yaml:"meta_key_prefix"`
	ProductPendingKey     string        `yaml:"product_pending_key"`
	CategoryPendingKey    string        `yaml:"category_pending_key"`
	CategoryIDKey         string        `yaml:"category_id_key"`
	DeletedItemsContainer string        `yaml:"deleted_items_container"`
	StockLockName         string        `yaml:"stock_lock_name"`
	StockLockTTL          time.Duration `yaml:"stock_lock_ttl"`
	StockLockTimeout      time.Duration `yaml:"stock_lock_timeout"`
}

// Defaults devuelve la configuración base antes de leer fichero y entorno.
func Defaults() *Config {
	return &Config{
		ConnectTimeout:        10 * time.Second,
		RequestTimeout:        30 * time.Second,
		StoreDriver:           "sqlite",
		SQLitePath:            "./catalogsync.db",
		MongoDB:               "catalogsync",
		KafkaBrokers:          []string{"localhost:9092"},
		KafkaTopic:            "inventory-sync",
		ClickHouseDB:          "default",
		QueueSize:             100,
		Workers:               4,
		OutboxPeriod:          1 * time.Second,
		OutboxLimit:           10,
		HTTPPort:              "8080",
		LogLevel:              "info",
		MetaKeyPrefix:         "wh_meta_",
		CategoryPendingKey:    "wh_meta_pending_crud",
		CategoryIDKey:         "wh_meta_cat_id",
		DeletedItemsContainer: "deleted-items",
		StockLockName:         "catalogsync:stock-lock",
		StockLockTTL:          30 * time.Second,
		StockLockTimeout:      5 * time.Second,
	}
}

// LoadConfig aplica defaults, el YAML de CONFIG_FILE si existe y el entorno.
func LoadConfig() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.ProductPendingKey == "" {
		cfg.ProductPendingKey = cfg.MetaKeyPrefix + "pending_crud"
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	var errs []string
	getInt := func(key string, fallback int) int {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q", key, v))
			return fallback
		}
		return n
	}
	getDuration := func(key string, fallback time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Segundos a secas: CONNECT_TIMEOUT=10.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		errs = append(errs, fmt.Sprintf("%s=%q", key, v))
		return fallback
	}
	getBool := func(key string, fallback bool) bool {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "":
			return fallback
		case "yes", "true", "1", "on":
			return true
		default:
			return false
		}
	}

	c.APIURL = getEnv("DINKASSA_API_URL", c.APIURL)
	c.MachineID = getEnv("MACHINE_ID", c.MachineID)
	c.MachineKey = getEnv("MACHINE_KEY", c.MachineKey)
	c.IntegratorID = getEnv("INTEGRATOR_ID", c.IntegratorID)
	c.LogEvents = getBool("LOG_EVENTS", c.LogEvents)
	c.ConnectTimeout = getDuration("CONNECT_TIMEOUT", c.ConnectTimeout)
	c.RequestTimeout = getDuration("REQUEST_TIMEOUT", c.RequestTimeout)

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.UseKafka = getBool("USE_KAFKA", c.UseKafka)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = strings.Split(v, ",")
	}
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.ClickHouseAddr = getEnv("CLICKHOUSE_ADDR", c.ClickHouseAddr)
	c.ClickHouseDB = getEnv("CLICKHOUSE_DB", c.ClickHouseDB)

	c.QueueSize = getInt("QUEUE_SIZE", c.QueueSize)
	c.Workers = getInt("WORKERS", c.Workers)
	c.OutboxPeriod = getDuration("OUTBOX_PERIOD", c.OutboxPeriod)
	c.OutboxLimit = getInt("OUTBOX_LIMIT", c.OutboxLimit)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.MetaKeyPrefix = getEnv("META_KEY_PREFIX", c.MetaKeyPrefix)
	c.ProductPendingKey = getEnv("PRODUCT_PENDING_KEY", c.ProductPendingKey)
	c.CategoryPendingKey = getEnv("CATEGORY_PENDING_KEY", c.CategoryPendingKey)
	c.CategoryIDKey = getEnv("CATEGORY_ID_KEY", c.CategoryIDKey)
	c.DeletedItemsContainer = getEnv("DELETED_ITEMS_CONTAINER", c.DeletedItemsContainer)
	c.StockLockName = getEnv("STOCK_LOCK_NAME", c.StockLockName)
	c.StockLockTTL = getDuration("STOCK_LOCK_TTL", c.StockLockTTL)
	c.StockLockTimeout = getDuration("STOCK_LOCK_TIMEOUT", c.StockLockTimeout)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(errs, ", "))
	}
	return nil
}

// Validate comprueba combinaciones que harían fallar el arranque más tarde.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	// Con Kafka la reconciliación puede ocurrir en otra instancia: el lock de
	// stock tiene que ser compartido.
	if c.UseKafka && c.RedisAddr == "" {
		return fmt.Errorf("USE_KAFKA requires REDIS_ADDR for the shared stock lock")
	}
	if c.QueueSize <= 0 || c.Workers <= 0 {
		return fmt.Errorf("QUEUE_SIZE and WORKERS must be positive")
	}
	return nil
}

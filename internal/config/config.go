package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	Extraction ExtractionConfig
	Batch      BatchConfig
	Cipher     CipherConfig
	Export     ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractionConfig controls what is pulled out of each PDF.
type ExtractionConfig struct {
	ExtractTables bool     `mapstructure:"tables"`
	ExtractText   bool     `mapstructure:"text"`
	HeaderMode    string   `mapstructure:"header_mode"`
	TenantNames   []string `mapstructure:"tenant_names"`
}

// BatchConfig holds the directory batch settings used by the CLI.
type BatchConfig struct {
	InputDir    string `mapstructure:"input_dir"`
	OutputFile  string `mapstructure:"output_file"`
	CSVFile     string `mapstructure:"csv_file"`
	Concurrency int    `mapstructure:"concurrency"`
	Verbose     bool   `mapstructure:"verbose"`
}

// CipherConfig holds the field encryption key material.
type CipherConfig struct {
	Passphrase string `mapstructure:"passphrase"`
	Salt       string `mapstructure:"salt"`
	Iterations int    `mapstructure:"iterations"`
}

// ExportConfig controls where session workbooks are stored.
type ExportConfig struct {
	KeyPrefix     string `mapstructure:"key_prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// flagBindings maps config keys to the CLI flags that may override them.
var flagBindings = map[string]string{
	"batch.input_dir":   "input-dir",
	"batch.output_file": "output-file",
	"batch.csv_file":    "csv",
	"batch.concurrency": "concurrency",
	"batch.verbose":     "verbose",
	"extraction.tables": "extract-tables",
	"extraction.text":   "extract-text",
}

// Load reads configuration from environment variables with the INVOICEGRID_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command line flags layered over the environment.
// Only flags the user actually set take precedence.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVOICEGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoicegrid")
	v.SetDefault("db.password", "invoicegrid_secret")
	v.SetDefault("db.name", "invoicegrid_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "invoicegrid-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Extraction defaults
	v.SetDefault("extraction.tables", true)
	v.SetDefault("extraction.text", true)
	v.SetDefault("extraction.header_mode", "strict")
	v.SetDefault("extraction.tenant_names", "ANEXIAN,ILICOMM")

	// Batch defaults
	v.SetDefault("batch.input_dir", "./pdfs")
	v.SetDefault("batch.output_file", "./extracted_data.xlsx")
	v.SetDefault("batch.csv_file", "")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.verbose", false)

	// Cipher defaults
	v.SetDefault("cipher.passphrase", "")
	v.SetDefault("cipher.salt", "invoicegrid-field-salt")
	v.SetDefault("cipher.iterations", 100000)

	// Export defaults
	v.SetDefault("export.key_prefix", "sessions")
	v.SetDefault("export.presign_expiry", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "INVOICEGRID_SERVER_PORT",
		"server.read_timeout":     "INVOICEGRID_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "INVOICEGRID_SERVER_WRITE_TIMEOUT",
		"server.environment":      "INVOICEGRID_SERVER_ENVIRONMENT",
		"server.cors_origins":     "INVOICEGRID_SERVER_CORS_ORIGINS",
		"db.host":                 "INVOICEGRID_DB_HOST",
		"db.port":                 "INVOICEGRID_DB_PORT",
		"db.user":                 "INVOICEGRID_DB_USER",
		"db.password":             "INVOICEGRID_DB_PASSWORD",
		"db.name":                 "INVOICEGRID_DB_NAME",
		"db.sslmode":              "INVOICEGRID_DB_SSLMODE",
		"db.max_open":             "INVOICEGRID_DB_MAX_OPEN",
		"db.max_idle":             "INVOICEGRID_DB_MAX_IDLE",
		"s3.region":               "INVOICEGRID_S3_REGION",
		"s3.bucket":               "INVOICEGRID_S3_BUCKET",
		"s3.endpoint":             "INVOICEGRID_S3_ENDPOINT",
		"s3.access_key":           "INVOICEGRID_S3_ACCESS_KEY",
		"s3.secret_key":           "INVOICEGRID_S3_SECRET_KEY",
		"s3.max_file_size_mb":     "INVOICEGRID_S3_MAX_FILE_SIZE_MB",
		"log.level":               "INVOICEGRID_LOG_LEVEL",
		"log.format":              "INVOICEGRID_LOG_FORMAT",
		"extraction.tables":       "INVOICEGRID_EXTRACTION_TABLES",
		"extraction.text":         "INVOICEGRID_EXTRACTION_TEXT",
		"extraction.header_mode":  "INVOICEGRID_EXTRACTION_HEADER_MODE",
		"extraction.tenant_names": "INVOICEGRID_EXTRACTION_TENANT_NAMES",
		"batch.input_dir":         "INVOICEGRID_BATCH_INPUT_DIR",
		"batch.output_file":       "INVOICEGRID_BATCH_OUTPUT_FILE",
		"batch.csv_file":          "INVOICEGRID_BATCH_CSV_FILE",
		"batch.concurrency":       "INVOICEGRID_BATCH_CONCURRENCY",
		"batch.verbose":           "INVOICEGRID_BATCH_VERBOSE",
		"cipher.passphrase":       "INVOICEGRID_CIPHER_PASSPHRASE",
		"cipher.salt":             "INVOICEGRID_CIPHER_SALT",
		"cipher.iterations":       "INVOICEGRID_CIPHER_ITERATIONS",
		"export.key_prefix":       "INVOICEGRID_EXPORT_KEY_PREFIX",
		"export.presign_expiry":   "INVOICEGRID_EXPORT_PRESIGN_EXPIRY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if INVOICEGRID_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEGRID_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Extraction = ExtractionConfig{
		ExtractTables: v.GetBool("extraction.tables"),
		ExtractText:   v.GetBool("extraction.text"),
		HeaderMode:    v.GetString("extraction.header_mode"),
		TenantNames:   splitList(v.GetString("extraction.tenant_names")),
	}
	cfg.Batch = BatchConfig{
		InputDir:    v.GetString("batch.input_dir"),
		OutputFile:  v.GetString("batch.output_file"),
		CSVFile:     v.GetString("batch.csv_file"),
		Concurrency: v.GetInt("batch.concurrency"),
		Verbose:     v.GetBool("batch.verbose"),
	}
	if cfg.Batch.Concurrency < 1 {
		cfg.Batch.Concurrency = 1
	}
	cfg.Cipher = CipherConfig{
		Passphrase: v.GetString("cipher.passphrase"),
		Salt:       v.GetString("cipher.salt"),
		Iterations: v.GetInt("cipher.iterations"),
	}
	cfg.Export = ExportConfig{
		KeyPrefix:     v.GetString("export.key_prefix"),
		PresignExpiry: v.GetInt64("export.presign_expiry"),
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

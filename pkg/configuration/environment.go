package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/vault-import/pkg/logging"
)

const Production = "production"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, or from the nearest
// ancestor directory holding a go.mod when none exist in the working directory.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := existing(envFiles, "")
	if len(existingFiles) == 0 {
		if root, ok := goModRoot(); ok {
			existingFiles = existing(envFiles, root)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func existing(envFiles []string, dir string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func goModRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts            string        `env:"-"`
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"` // postgres or sqlite
	Name            string        `env:"DB_NAME" envDefault:"vault"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	SQLitePath      string        `env:"DB_SQLITE_PATH" envDefault:"./data/vault.db"`
	MaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"5m"`
}

func (d *DatabaseOptions) ConnectionString() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type ImportOptions struct {
	BatchSize          int    `env:"IMPORT_BATCH_SIZE" envDefault:"500"`
	OrphanSampleLimit  int    `env:"IMPORT_ORPHAN_SAMPLE_LIMIT" envDefault:"50"`
	DetectorSampleSize int    `env:"IMPORT_DETECTOR_SAMPLE_SIZE" envDefault:"100"`
	ManagerRuleHint    string `env:"IMPORT_MANAGER_RULE_HINT" envDefault:"department"` // contract or department
	// Applied when both manager rules match the same non-zero number of sampled persons.
	ManagerRuleTieBreak string `env:"IMPORT_MANAGER_RULE_TIE_BREAK" envDefault:"department"`
	DetectAfterImport   bool   `env:"IMPORT_DETECT_AFTER_IMPORT" envDefault:"false"`
}

func (o *ImportOptions) Validate() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", o.BatchSize)
	}
	if o.OrphanSampleLimit < 0 {
		return fmt.Errorf("IMPORT_ORPHAN_SAMPLE_LIMIT must be non-negative, got %d", o.OrphanSampleLimit)
	}
	if o.DetectorSampleSize <= 0 {
		return fmt.Errorf("IMPORT_DETECTOR_SAMPLE_SIZE must be positive, got %d", o.DetectorSampleSize)
	}
	for name, v := range map[string]*string{
		"IMPORT_MANAGER_RULE_HINT":      &o.ManagerRuleHint,
		"IMPORT_MANAGER_RULE_TIE_BREAK": &o.ManagerRuleTieBreak,
	} {
		mode := strings.ToLower(strings.TrimSpace(*v))
		switch mode {
		case "contract", "department":
		default:
			return fmt.Errorf("invalid %s=%q (expected contract|department)", name, *v)
		}
		*v = mode
	}
	return nil
}

type BackupOptions struct {
	Driver    string `env:"BACKUP_DRIVER" envDefault:"fs"` // fs or s3
	Dir       string `env:"BACKUP_DIR" envDefault:"./backups"`
	Bucket    string `env:"BACKUP_S3_BUCKET"`
	Region    string `env:"BACKUP_S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"BACKUP_S3_ENDPOINT"`
	PathStyle bool   `env:"BACKUP_S3_PATH_STYLE" envDefault:"false"`
	Prefix    string `env:"BACKUP_PREFIX" envDefault:"vault-backups"`
}

func (b *BackupOptions) Validate() error {
	switch b.Driver {
	case "fs":
	case "s3":
		if b.Bucket == "" {
			return fmt.Errorf("BACKUP_S3_BUCKET is required when BACKUP_DRIVER is 's3'")
		}
	default:
		return fmt.Errorf("BACKUP_DRIVER must be 'fs' or 's3', got '%s'", b.Driver)
	}
	return nil
}

type PreferencesOptions struct {
	Driver   string `env:"PREFERENCES_DRIVER" envDefault:"file"` // file or redis
	Path     string `env:"PREFERENCES_PATH" envDefault:"./data/preferences.yaml"`
	RedisURL string `env:"PREFERENCES_REDIS_URL" envDefault:"localhost:6379"`
	RedisKey string `env:"PREFERENCES_REDIS_KEY" envDefault:"vault:preferences"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"vault-import"`
}

type PrometheusOptions struct {
	Enabled      bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	TextfilePath string `env:"PROMETHEUS_TEXTFILE_PATH" envDefault:"./metrics/vault_import.prom"`
}

type Configuration struct {
	Database      DatabaseOptions
	Import        ImportOptions
	Backup        BackupOptions
	Preferences   PreferencesOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load builds a fresh configuration from env files and the process environment.
// Prefer Use in binaries; Load exists for tests and one-shot tools.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import configuration error: %w", err)
	}
	if err := c.Backup.Validate(); err != nil {
		return fmt.Errorf("backup configuration error: %w", err)
	}
	if err := c.validatePreferences(); err != nil {
		return err
	}

	if c.LogPath != "" {
		f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
		if err != nil {
			return err
		}
		c.logFile = f
		c.logger = logger
	} else {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	}

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func (c *Configuration) validateDatabase() error {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (expected postgres|sqlite)", c.Database.Driver)
	}
	c.Database.Driver = driver
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}
	return nil
}

func (c *Configuration) validatePreferences() error {
	driver := strings.ToLower(strings.TrimSpace(c.Preferences.Driver))
	switch driver {
	case "file", "redis":
	default:
		return fmt.Errorf("invalid PREFERENCES_DRIVER=%q (expected file|redis)", c.Preferences.Driver)
	}
	c.Preferences.Driver = driver
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}

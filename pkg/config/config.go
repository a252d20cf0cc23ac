// Package config loads the run configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/archive"
	"github.com/quatton/aimless/pkg/basin"
	"github.com/quatton/aimless/pkg/db"
	"github.com/quatton/aimless/pkg/kube"
	"github.com/quatton/aimless/pkg/kv"
	"github.com/quatton/aimless/pkg/report"
	"github.com/quatton/aimless/pkg/sched"
	"github.com/quatton/aimless/pkg/shooter"
	"github.com/quatton/aimless/pkg/tpl"
)

const (
	EnvPrefix = "AIMLESS"

	BackendTorque = "torque"
	BackendKube   = "kube"
	BackendLocal  = "local"
)

// ConfigFiles are looked up in the working directory when no file is given.
var ConfigFiles = []string{"aimless.yaml", "aimless.yml", ".aimless.yaml"}

type Config struct {
	Main    Main              `mapstructure:"main"`
	Jobs    map[string]string `mapstructure:"jobs"`
	Basins  basin.Bounds      `mapstructure:"basins"`
	Archive Archive           `mapstructure:"archive"`
	Results Results           `mapstructure:"results"`
	Kube    kube.Config       `mapstructure:"kube"`
	Server  Server            `mapstructure:"server"`

	v *viper.Viper
}

type Main struct {
	NumPaths    int    `mapstructure:"numpaths"`
	TotalSteps  int    `mapstructure:"totalsteps"`
	TplDir      string `mapstructure:"tpldir"`
	TgtDir      string `mapstructure:"tgtdir"`
	Topology    string `mapstructure:"topology"`
	Coordinates string `mapstructure:"coordinates"`
	TextReport  string `mapstructure:"text_report"`
	CSVReport   string `mapstructure:"csv_report"`
	XLSXReport  string `mapstructure:"xlsx_report"`
	WaitSecs    int    `mapstructure:"waitsecs"`
	Backend     string `mapstructure:"backend"`
	Seed        uint64 `mapstructure:"seed"`
	Qsub        string `mapstructure:"qsub"`
	Qstat       string `mapstructure:"qstat"`
}

// Archive selects where finished paths are mirrored. Dir picks a local
// directory store; otherwise S3 is used.
type Archive struct {
	Enabled bool             `mapstructure:"enabled"`
	Dir     string           `mapstructure:"dir"`
	S3      archive.S3Config `mapstructure:"s3"`
}

// Results selects where path results are published besides the reports.
type Results struct {
	Redis kv.ValkeyConfig `mapstructure:"redis"`
	TTL   time.Duration   `mapstructure:"ttl"`
	// Lock claims the target directory in Redis for the run.
	Lock     bool      `mapstructure:"lock"`
	Database bool      `mapstructure:"database"`
	DB       db.Config `mapstructure:"db"`
}

type Server struct {
	Listen string `mapstructure:"listen"`
}

// Load reads cfgFile, or the first of ConfigFiles present in the working
// directory, layering AIMLESS_* environment overrides and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, aerr.Newf(aerr.CodeConfig, "reading config file %s: %w", cfgFile, err)
		}
	} else {
		for _, name := range ConfigFiles {
			if _, err := os.Stat(name); err != nil {
				continue
			}
			v.SetConfigFile(name)
			if err := v.ReadInConfig(); err != nil {
				return nil, aerr.Newf(aerr.CodeConfig, "reading config file %s: %w", name, err)
			}
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, aerr.Newf(aerr.CodeConfig, "unmarshaling config: %w", err)
	}
	if cfg.Jobs == nil {
		cfg.Jobs = map[string]string{}
	}
	cfg.v = v
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main.numpaths", 1)
	v.SetDefault("main.totalsteps", 1000)
	v.SetDefault("main.tpldir", "tpl")
	v.SetDefault("main.tgtdir", ".")
	v.SetDefault("main.topology", "")
	v.SetDefault("main.coordinates", "")
	v.SetDefault("main.text_report", report.DefaultText)
	v.SetDefault("main.csv_report", report.DefaultCSV)
	v.SetDefault("main.xlsx_report", report.DefaultXLSX)
	v.SetDefault("main.waitsecs", int(sched.DefaultPollInterval/time.Second))
	v.SetDefault("main.backend", BackendTorque)
	v.SetDefault("main.seed", 0)
	v.SetDefault("main.qsub", "qsub")
	v.SetDefault("main.qstat", "qstat")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.s3.endpoint", "localhost:9000")
	v.SetDefault("archive.s3.bucket", "aimless")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")
	v.SetDefault("archive.s3.region", "")
	v.SetDefault("archive.s3.use_ssl", false)

	v.SetDefault("results.redis.addr", "")
	v.SetDefault("results.redis.password", "")
	v.SetDefault("results.redis.db", 0)
	v.SetDefault("results.ttl", "168h")
	v.SetDefault("results.lock", false)
	v.SetDefault("results.database", false)
	v.SetDefault("results.db.host", "localhost")
	v.SetDefault("results.db.port", 5432)
	v.SetDefault("results.db.user", "aimless")
	v.SetDefault("results.db.password", "")
	v.SetDefault("results.db.database", "aimless")
	v.SetDefault("results.db.sslmode", "disable")
	v.SetDefault("results.db.dsn", "")

	v.SetDefault("kube.namespace", "default")
	v.SetDefault("kube.image", "")
	v.SetDefault("kube.queue_name", "")
	v.SetDefault("kube.work_dir", "/work")

	v.SetDefault("server.listen", "")
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Main.NumPaths < 1 {
		add("main.numpaths must be at least 1")
	}
	if c.Main.TotalSteps < 100 {
		add("main.totalsteps must be at least 100")
	}
	if c.Main.TplDir == "" {
		add("main.tpldir is required")
	}
	if c.Main.TgtDir == "" {
		add("main.tgtdir is required")
	}
	if c.Main.Topology == "" {
		add("main.topology is required")
	}
	if c.Main.WaitSecs < 1 {
		add("main.waitsecs must be at least 1")
	}
	switch c.Main.Backend {
	case BackendTorque, BackendLocal:
	case BackendKube:
		if c.Kube.Image == "" {
			add("kube.image is required for the kube backend")
		}
	default:
		add("main.backend %q is not one of torque, kube, local", c.Main.Backend)
	}
	if err := c.Basins.Validate(); err != nil {
		add("%v", err)
	}
	if _, err := shooter.ParseJobParams(c.Jobs); err != nil {
		add("%v", err)
	}
	if c.Archive.Enabled && c.Archive.Dir == "" && c.Archive.S3.Bucket == "" {
		add("archive.s3.bucket is required when archive is enabled")
	}
	if c.Results.Lock && c.Results.Redis.Addr == "" {
		add("results.lock needs results.redis.addr")
	}

	if len(problems) > 0 {
		return aerr.Newf(aerr.CodeConfig, "invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// StepParams derives the step counts for the run.
func (c *Config) StepParams() shooter.StepParams {
	p := shooter.CalcParams(c.Main.TotalSteps)
	p.NumPaths = c.Main.NumPaths
	return p
}

// JobParams parses the jobs section.
func (c *Config) JobParams() (shooter.JobParams, error) {
	return shooter.ParseJobParams(c.Jobs)
}

// TemplateParams is the substitution map for the input templates: the
// main and jobs sections with the derived step counts on top.
func (c *Config) TemplateParams() map[string]string {
	section := map[string]any{}
	if c.v != nil {
		for _, key := range c.v.AllKeys() {
			if name, ok := strings.CutPrefix(key, "main."); ok {
				section[name] = c.v.Get(key)
			}
		}
	}
	params := tpl.Params(section)
	for k, v := range c.Jobs {
		params[k] = v
	}
	for k, v := range c.StepParams().Map() {
		params[k] = v
	}
	return params
}

// WaitInterval is the scheduler poll interval.
func (c *Config) WaitInterval() time.Duration {
	return time.Duration(c.Main.WaitSecs) * time.Second
}

// ReportPaths are the report targets.
func (c *Config) ReportPaths() report.Paths {
	return report.Paths{Text: c.Main.TextReport, CSV: c.Main.CSVReport, XLSX: c.Main.XLSXReport}
}

// ShooterConfig assembles the shooter's static configuration.
func (c *Config) ShooterConfig() (shooter.Config, error) {
	jobs, err := c.JobParams()
	if err != nil {
		return shooter.Config{}, err
	}
	return shooter.Config{
		TplDir:   c.Main.TplDir,
		TgtDir:   c.Main.TgtDir,
		Topology: c.Main.Topology,
		Job:      jobs,
		Bounds:   c.Basins,
	}, nil
}

// ApplyEnv fills secrets that are only taken from the environment.
func (c *Config) ApplyEnv(env *EnvConfig) {
	if env == nil {
		return
	}
	if c.Archive.S3.AccessKey == "" {
		c.Archive.S3.AccessKey = env.S3AccessKey
	}
	if c.Archive.S3.SecretKey == "" {
		c.Archive.S3.SecretKey = env.S3SecretKey
	}
	if c.Results.DB.Password == "" {
		c.Results.DB.Password = env.DBPassword
	}
	if c.Results.Redis.Password == "" {
		c.Results.Redis.Password = env.RedisPassword
	}
}

// ConfigFileUsed returns the config file that was used (if any)
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance
func (c *Config) Viper() *viper.Viper {
	return c.v
}

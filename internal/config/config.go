// Package config loads the churnlab configuration from defaults, an optional
// churnlab.yaml, and CHURNLAB_* environment overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config carries every knob of an experiment run.
// Precedence: env > config file > defaults.
type Config struct {
	// Dataset generation.
	Rows                   int     `mapstructure:"rows" yaml:"rows"`
	Seed                   int     `mapstructure:"seed" yaml:"seed"`
	ChurnRate              float64 `mapstructure:"churn_rate" yaml:"churn_rate"`
	MissingTotalCharges    int     `mapstructure:"missing_total_charges" yaml:"missing_total_charges"`
	InflatedMonthlyCharges int     `mapstructure:"inflated_monthly_charges" yaml:"inflated_monthly_charges"`

	// Split and tuning.
	TestSize    float64 `mapstructure:"test_size" yaml:"test_size"`
	TreeCVFolds int     `mapstructure:"tree_cv_folds" yaml:"tree_cv_folds"`
	NBCVFolds   int     `mapstructure:"nb_cv_folds" yaml:"nb_cv_folds"`
	SkipSMOTE   bool    `mapstructure:"skip_smote" yaml:"skip_smote"`

	// Artifacts.
	DataPath    string `mapstructure:"data_path" yaml:"data_path"`
	OutDir      string `mapstructure:"out_dir" yaml:"out_dir"`
	ModelPath   string `mapstructure:"model_path" yaml:"model_path"`
	RenderPlots bool   `mapstructure:"render_plots" yaml:"render_plots"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rows", 5000)
	v.SetDefault("seed", 42)
	v.SetDefault("churn_rate", 0.20)
	v.SetDefault("missing_total_charges", 50)
	v.SetDefault("inflated_monthly_charges", 10)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("tree_cv_folds", 10)
	v.SetDefault("nb_cv_folds", 5)
	v.SetDefault("skip_smote", false)
	v.SetDefault("data_path", "customers.csv")
	v.SetDefault("out_dir", ".")
	v.SetDefault("model_path", "")
	v.SetDefault("render_plots", false)
	v.SetDefault("log_level", "info")
}

// Load reads the configuration. When cfgFile is empty, churnlab.yaml is
// discovered in the working directory first, then in ~/.churnlab/; a missing
// file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHURNLAB")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".churnlab"))
		}
		v.SetConfigName("churnlab")
		v.SetConfigType("yaml")
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the configuration as YAML. An empty path targets
// ~/.churnlab/churnlab.yaml, creating the directory if needed.
func Save(c *Config, path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve home directory")
		}
		dir := filepath.Join(home, ".churnlab")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
		path = filepath.Join(dir, "churnlab.yaml")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if c.Rows <= 0 {
		return errors.NewValidationError("rows", "must be positive", c.Rows)
	}
	if c.ChurnRate <= 0 || c.ChurnRate >= 1 {
		return errors.NewValidationError("churn_rate", "must be in (0, 1)", c.ChurnRate)
	}
	if c.MissingTotalCharges < 0 || c.MissingTotalCharges > c.Rows {
		return errors.NewValidationError("missing_total_charges", "must be in [0, rows]", c.MissingTotalCharges)
	}
	if c.InflatedMonthlyCharges < 0 || c.InflatedMonthlyCharges > c.Rows {
		return errors.NewValidationError("inflated_monthly_charges", "must be in [0, rows]", c.InflatedMonthlyCharges)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if c.TreeCVFolds < 2 {
		return errors.NewValidationError("tree_cv_folds", "must be at least 2", c.TreeCVFolds)
	}
	if c.NBCVFolds < 2 {
		return errors.NewValidationError("nb_cv_folds", "must be at least 2", c.NBCVFolds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/dispatch"
	"github.com/chenBenjamin97/ballannotate/pkg/storage"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

//FallbackWorkers is used when the core count cannot be read
const FallbackWorkers = 4

//EnvPrefix prefixes environment overrides, e.g. BALLANNOTATE_INPUT_DIR
const EnvPrefix = "BALLANNOTATE"

type Config struct {
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Workers    int              `mapstructure:"workers"`
	Background BackgroundConfig `mapstructure:"background"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Storage    StorageConfig    `mapstructure:"storage"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
}

type InputConfig struct {
	Dir         string `mapstructure:"dir"`
	StorageRoot string `mapstructure:"storage_root"`
}

type OutputConfig struct {
	TableDir string `mapstructure:"table_dir"`
	Report   string `mapstructure:"report"`
	Overlays bool   `mapstructure:"overlays"`
	Masks    bool   `mapstructure:"masks"`
}

type BackgroundConfig struct {
	History       int     `mapstructure:"history"`
	VarThreshold  float64 `mapstructure:"var_threshold"`
	DetectShadows bool    `mapstructure:"detect_shadows"`
}

type BlobConfig struct {
	MinArea   float64 `mapstructure:"min_area"`
	Padding   float64 `mapstructure:"padding"`
	Threshold float64 `mapstructure:"threshold"`
}

type StorageConfig struct {
	Scheme    string `mapstructure:"scheme"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Publish   bool   `mapstructure:"publish"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

//SetDefaults registers a default for every key, so a missing config file still yields a usable configuration
func SetDefaults(v *viper.Viper) {
	background := video.DefaultBackgroundConfig()
	blob := video.DefaultBlobConfig()

	v.SetDefault("input.dir", "./data")
	v.SetDefault("input.storage_root", "")
	v.SetDefault("output.table_dir", "./tables")
	v.SetDefault("output.report", "./reports/latest.yaml")
	v.SetDefault("output.overlays", true)
	v.SetDefault("output.masks", false)
	v.SetDefault("workers", DefaultWorkers())
	v.SetDefault("background.history", background.History)
	v.SetDefault("background.var_threshold", background.VarThreshold)
	v.SetDefault("background.detect_shadows", background.DetectShadows)
	v.SetDefault("blob.min_area", blob.MinArea)
	v.SetDefault("blob.padding", blob.Padding)
	v.SetDefault("blob.threshold", float64(blob.BinaryThreshold))
	v.SetDefault("storage.scheme", storage.SchemeS3)
	v.SetDefault("storage.bucket", "frames")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.publish", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("http.port", "8080")
	v.SetDefault("log.level", "info")
}

//DefaultWorkers returns the number of physical cores, FallbackWorkers when it cannot be read
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return FallbackWorkers
	}
	return n
}

//Init prepares v: defaults, environment overrides and the config file.
//file may be empty, then 'config.yaml' is searched in the working directory and may be missing.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("Init: Could not read config file, got '%w'", err)
	}

	return nil
}

//Get decodes the current state of v
func Get(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("Get: Could not decode configuration, got '%w'", err)
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers()
	}
	return &c, nil
}

//Label is the storage label annotation image references are built from
func (c *Config) Label() annotation.StorageLabel {
	return annotation.StorageLabel{Scheme: c.Storage.Scheme, Bucket: c.Storage.Bucket, Prefix: c.Storage.Prefix}
}

func (c *Config) ProcessorConfig() video.ProcessorConfig {
	return video.ProcessorConfig{
		Background: video.BackgroundConfig{
			History:       c.Background.History,
			VarThreshold:  c.Background.VarThreshold,
			DetectShadows: c.Background.DetectShadows,
		},
		Blob: video.BlobConfig{
			MinArea:         c.Blob.MinArea,
			Padding:         c.Blob.Padding,
			BinaryThreshold: float32(c.Blob.Threshold),
		},
		Storage:  c.Label(),
		TableDir: c.Output.TableDir,
	}
}

func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Scheme:    c.Storage.Scheme,
		Bucket:    c.Storage.Bucket,
		Prefix:    c.Storage.Prefix,
		Publish:   c.Storage.Publish,
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		UseSSL:    c.Storage.UseSSL,
	}
}

//RunOptions builds the options of a pipeline run, pub may be nil
func (c *Config) RunOptions(pub storage.Publisher) dispatch.Options {
	return dispatch.Options{
		InputDir: c.Input.Dir,
		Discover: dispatch.DiscoverOptions{
			StorageRoot: c.Input.StorageRoot,
			Overlays:    c.Output.Overlays,
			Masks:       c.Output.Masks,
		},
		Workers:    c.Workers,
		Processor:  c.ProcessorConfig(),
		Publisher:  pub,
		Prefix:     c.Storage.Prefix,
		ReportPath: c.Output.Report,
	}
}

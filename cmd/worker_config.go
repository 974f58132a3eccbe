package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"eztools/common"
	"eztools/eztool"
)

type ToolsConfig struct {
	Dotnet               string `json:"dotnet"`
	LECmd                string `json:"lecmd-dll"`
	RBCmd                string `json:"rbcmd-dll"`
	AppCompatCacheParser string `json:"appcompatcacheparser-dll"`
}

type WorkerConfig struct {
	WorkerThreads           int                     `json:"worker-threads"`
	TempDir                 string                  `json:"temp-dir"`
	LogLevel                string                  `json:"log-level"`
	ListenAddress           string                  `json:"listen-address"`
	Tools                   ToolsConfig             `json:"tools"`
	ConsumerConfig          ConsumerConfig          `json:"consumer-config"`
	ConnectionConfig        ConnectionConfig        `json:"connection-config"`
	ObjectStoreBucketConfig ObjectStoreBucketConfig `json:"object-store-bucket-config"`
	KeyValueBucketConfig    KeyValueBucketConfig    `json:"key-value-bucket-config"`
}

func (c *WorkerConfig) setDefaults() {
	if c.WorkerThreads <= 0 {
		c.WorkerThreads = runtime.NumCPU()
	}
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.ConsumerConfig.AckWaitTime.Duration == 0 {
		c.ConsumerConfig.AckWaitTime.Duration = 5 * time.Minute
	}
}

func (c *WorkerConfig) validate() error {
	var err error
	if c.ConsumerConfig.StreamName == "" {
		err = errors.Join(err, errors.New("consumer-config.stream-name is required"))
	}
	if c.ConsumerConfig.Name == "" {
		err = errors.Join(err, errors.New("consumer-config.name is required"))
	}
	if c.ObjectStoreBucketConfig.Name == "" {
		err = errors.Join(err, errors.New("object-store-bucket-config.name is required"))
	}
	if c.KeyValueBucketConfig.Name == "" {
		err = errors.Join(err, errors.New("key-value-bucket-config.name is required"))
	}
	return err
}

func (c *WorkerConfig) ToolPaths() eztool.ToolPaths {
	return eztool.ToolPaths{
		Dotnet:               c.Tools.Dotnet,
		LECmd:                c.Tools.LECmd,
		RBCmd:                c.Tools.RBCmd,
		AppCompatCacheParser: c.Tools.AppCompatCacheParser,
	}
}

// LoadWorkerConfig reads the config file, resolving "$VAR" values against the
// process environment merged over the .env file.
func LoadWorkerConfig(configPath, dotEnvPath string) (*WorkerConfig, error) {
	env, err := common.GetEnv(dotEnvPath)
	if err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	var config WorkerConfig
	if err = common.ParseConfigFileWithRespectToEnv(configPath, env, &config); err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	config.setDefaults()
	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

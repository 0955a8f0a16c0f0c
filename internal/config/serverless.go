package config

import (
	"os"
	"path/filepath"
	"sync"
)

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	MemoryMB     string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			MemoryMB:     os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment.
// Inside the function package the site output and content database live at
// fixed locations: the deployment bundle places built assets next to the
// executable, and any writable database must sit on the EFS mount.
func AdaptConfigForServerless(config *Config) *Config {
	if !IsServerlessMode() {
		return config
	}

	// The deploy step unpacks the site output into the task root under the
	// name the client build was invoked with.
	if taskRoot := os.Getenv("LAMBDA_TASK_ROOT"); taskRoot != "" {
		config.Site.Root = filepath.Join(taskRoot, config.Site.OutputName)
	}

	// Local relative database paths cannot work in the function package;
	// prefer an EFS mount when one is configured.
	if config.Content.DatabasePath == "./data/content.db" {
		config.Content.DatabasePath = GetEnv("EFS_CONTENT_DB_PATH", "/mnt/efs/content.db")
	}

	// One invocation at a time per instance; keep the pool minimal unless the
	// operator overrides it.
	conns := GetEnvAsInt("LAMBDA_DB_MAX_CONNS", 1)
	config.Content.MaxOpenConns = conns
	config.Content.MaxIdleConns = conns

	return config
}

// GetOptimizedConfig returns configuration optimized for the current
// deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForServerless(config), nil
}

package checker

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the checker configuration.
type Config struct {
	RootDir string

	// TracePath points at the JSON access-trace fixture to verify.
	TracePath string

	// Parallel switches the validation scan to the chunked concurrent mode.
	Parallel bool
}

func NewConfig(args ...string) *Config {
	// Parse configuration from environment variables or command line args
	config := Config{
		RootDir:   getEnv("ROOT", "."),
		TracePath: getEnv("TRACE", "trace.json"),
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--parallel":
			config.Parallel = true
		case "--root":
			i++
			config.RootDir = flagValue(args, i)
		case "--trace":
			i++
			config.TracePath = flagValue(args, i)
		}
	}

	return &config
}

// TraceFile resolves the fixture location: an absolute trace path is used
// as-is, a relative one resolves under the root directory.
func (c *Config) TraceFile() string {
	if filepath.IsAbs(c.TracePath) {
		return c.TracePath
	}
	return filepath.Join(c.RootDir, c.TracePath)
}

func flagValue(args []string, i int) string {
	if i >= len(args) {
		panic(fmt.Errorf("missing argument for %s", args[i-1]))
	}
	return args[i]
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

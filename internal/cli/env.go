package cli

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	envGraphFile = "ROUTE_GRAPH_FILE"
	envGlob      = "ROUTE_GLOB"
	envQueries   = "ROUTE_QUERIES"
	envFormat    = "ROUTE_FORMAT"
	envOutputDir = "ROUTE_OUTPUT_DIR"
	envVerbose   = "ROUTE_VERBOSE"
)

// loadEnv loads a .env file from the working directory, if there is one.
// Variables already set in the environment take precedence.
func loadEnv() bool {
	return godotenv.Load() == nil
}

func getEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}

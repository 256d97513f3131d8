package config

import (
	"os"

	"github.com/joho/godotenv"
)

const envFileName = ".env"

// loadEnvFile pulls a local .env into the environment. Variables already set
// win over the file; a missing file is not an error.
func loadEnvFile() {
	if _, err := os.Stat(envFileName); err != nil {
		return
	}
	_ = godotenv.Load(envFileName)
}

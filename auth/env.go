package auth

import (
	"encoding/json"
	"os"
	"strings"

	"go.uber.org/zap"
)

// fromEnv returns the JSON held by an environment variable, or nil if the variable is
// unset or is not valid JSON.
func fromEnv(key string, log *zap.Logger) []byte {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	if !json.Valid([]byte(v)) {
		log.Warn("ignoring invalid JSON in environment variable", zap.String("variable", key))
		return nil
	}

	return []byte(v)
}

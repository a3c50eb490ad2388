package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Local development gets the human-readable
// console encoder; everything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

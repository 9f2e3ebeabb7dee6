package utils

import (
	"go.uber.org/zap"
)

// NewLogger returns a development logger for local runs and a production logger otherwise.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

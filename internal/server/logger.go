package server

import (
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/config"
)

// NewLogger строит zap по конфигурации: JSON в production, консоль в development.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

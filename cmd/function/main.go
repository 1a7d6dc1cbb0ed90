// Command function builds the SUT as a Tarmac WebAssembly function. Each
// invocation carries one JSON request envelope; see package edge. It links
// only the in-memory session store and no exporters.
package main

import (
	"github.com/duynhne/sut-service/config"
	"github.com/duynhne/sut-service/internal/core/repository/memory"
	"github.com/duynhne/sut-service/internal/edge"
	"github.com/duynhne/sut-service/internal/logger"
	"github.com/duynhne/sut-service/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tarmac-project/sdk"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.SetupWithFormat(cfg.Logging.Level, cfg.Logging.Format)

	// Sessions live in guest memory for the lifetime of the module instance.
	engine := router.New(cfg, memory.NewSessionStore(), nil)

	if _, err := sdk.New(sdk.Config{Handler: edge.NewAdapter(engine).Handle}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register function handler")
	}
}

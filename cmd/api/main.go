package main

import (
	"inventory-backend/pkg/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env chỉ dùng cho local; production đọc system env
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("⚠️  No .env file found, using system environment variables")
	}

	// ========================================
	// BUILD DI CONTAINER
	// ========================================
	// DB_AUTO_MIGRATE=true sẽ apply schema ngay trong bước này
	appContainer, err := container.NewContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to initialize container")
	}
	defer appContainer.Cleanup()

	if appContainer.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	Serve(appContainer)
}

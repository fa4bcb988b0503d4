package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ncngteam/miniapp/publisher"
	"github.com/ncngteam/miniapp/server"
	"github.com/ncngteam/miniapp/server/middlewares"
	"github.com/ncngteam/miniapp/utils"
	"github.com/ncngteam/miniapp/utils/dotenv"
	Flag "github.com/ncngteam/miniapp/utils/flag"
	Logger "github.com/ncngteam/miniapp/utils/log"
)

func main() {
	Flag.ParseFlags()
	Logger.InitLogger()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect to DB: ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	middlewares.Setup(db)

	// The sweeper owns the startup and periodic auto-publish sweeps; it stops
	// on SIGINT/SIGTERM together with the rest of the process.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := publisher.NewSweeper(db)
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			Logger.Log.Error("sweeper stopped with error: ", err)
		}
	}()

	if !*Flag.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	server.RegisterRoutes(router, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	Logger.Log.Info("api server starts up on port ", port)
	router.Run(":" + port)
}

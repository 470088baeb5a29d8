package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"competency_backend/internals/configs"
	database "competency_backend/internals/databases"
	"competency_backend/internals/features/competency/summaries/scheduler"
	routes "competency_backend/internals/route"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run AutoMigrate before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	if configs.JWTSecret == "" {
		return errors.New("JWT_SECRET belum diset")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if m, _ := cmd.Flags().GetBool("migrate"); m {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}

	// ⏱ scheduler setelah DB siap
	c, err := scheduler.StartRecalcCron(db, configs.RecalcCron)
	if err != nil {
		return err
	}
	if c != nil {
		defer func() { <-c.Stop().Done() }()
	}

	app := routes.NewApp(db)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("✅ Listening on :%s", configs.Port)
		errCh <- app.Listen("0.0.0.0:" + configs.Port)
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(ctx)
}

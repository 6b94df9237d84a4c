package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/web"
)

const cliTimeout = 2 * time.Minute

// loadConfig reads .env and the environment and sets up logging.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		return nil, err
	}
	logger.InitLogger(level)
	return config.Load()
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.CloseLogger()

	server := web.NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Error("start server:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP, restarting")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			if err := config.LoadEnvFile(); err != nil {
				logger.Warning("reload .env:", err)
			}
			if reloaded, err := config.Load(); err != nil {
				logger.Warning("reload config, keeping previous:", err)
			} else {
				cfg = reloaded
			}
			server = web.NewServer(cfg)
			if err := server.Start(); err != nil {
				logger.Error("restart server:", err)
				return
			}
		default:
			logger.Info("Shutting down")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	store, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Println("migration complete")
	return nil
}

func seedDb(ownerName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	store, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	owner, err := store.GetUserByUsername(ctx, ownerName)
	if err != nil {
		return fmt.Errorf("find owner %q: %w", ownerName, err)
	}
	n, err := database.Seed(ctx, store, owner.Id)
	if err != nil {
		return err
	}
	fmt.Printf("data was initialized: %d listings owned by %s\n", n, owner.Username)
	return nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "Wanderlust listings marketplace",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, collections and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateDb()
		},
	}

	var seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Replace all listings with the sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			return seedDb(owner)
		},
	}
	seedCmd.Flags().String("owner", "", "username that owns the sample listings")
	_ = seedCmd.MarkFlagRequired("owner")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, seedCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avosk/shelfmark/config"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/metadata"
	"github.com/avosk/shelfmark/server"
	"github.com/avosk/shelfmark/store"
	"github.com/avosk/shelfmark/store/db"
	"github.com/avosk/shelfmark/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	greetingBanner = `
███████ ██   ██ ███████ ██      ███████ ███    ███  █████  ██████  ██   ██
██      ██   ██ ██      ██      ██      ████  ████ ██   ██ ██   ██ ██  ██
███████ ███████ █████   ██      █████   ██ ████ ██ ███████ ██████  █████
     ██ ██   ██ ██      ██      ██      ██  ██  ██ ██   ██ ██   ██ ██  ██
███████ ██   ██ ███████ ███████ ██      ██      ██ ██   ██ ██   ██ ██   ██
`
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "shelfmark",
		Short: "Shelfmark is a personal library and reading progress tracker",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			d, err := db.NewDB(config.Opts.DSN)
			if err != nil {
				log.Error("Error connecting to database", zap.Error(err))
				return
			}
			defer d.Close()
			if err := d.Migrate(ctx); err != nil {
				log.Error("Error migrating database", zap.Error(err))
				return
			}

			s := store.NewStore(d)
			if err := s.Ping(); err != nil {
				log.Error("Error pinging database", zap.Error(err))
				return
			}

			lookupTimeout := time.Duration(config.Opts.LookupTimeout) * time.Second
			resolver := metadata.NewResolver(
				metadata.NewGoogleBooksClient(config.Opts.GoogleBooksURL, lookupTimeout),
				metadata.NewOpenLibraryClient(config.Opts.OpenLibraryURL, lookupTimeout),
			)
			service := library.NewService(s, resolver)
			refreshPool := worker.NewMetadataRefreshPool(s, resolver, lookupTimeout, config.Opts.WorkerPoolSize)

			if config.AuthEnabled() && config.Opts.JWTSecret == "" {
				config.Opts.JWTSecret = generateSecret()
				log.Warn("Generated an ephemeral JWT secret, set jwt_secret to keep sessions across restarts")
			}

			fmt.Print(greetingBanner)
			httpServer, err := server.StartServer(ctx, s, service, refreshPool)
			if err != nil {
				log.Error("Error starting server", zap.Error(err))
				return
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			log.Info("Shutting down")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down server", zap.Error(err))
			}
		},
	}

	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash an owner password for the password_hash config option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (TOML)")
	rootCmd.AddCommand(hashPasswordCmd)

	cobra.OnInitialize(func() {
		if _, err := config.GetConfig(); err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}
		if configFile != "" {
			if _, err := config.ParseFile(configFile); err != nil {
				fmt.Println("Error parsing config file:", err)
				os.Exit(1)
			}
		}
		log.Logger = log.NewLogger()
	})
}

func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("Unable to generate JWT secret", zap.Error(err))
	}
	return hex.EncodeToString(buf)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if log.Logger != nil {
		defer log.Logger.Sync()
	}
}

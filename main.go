package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"pixel-steganography/handlers"
)

const usage = `usage:
  pixel-steganography encode <file> <carrier> <bitwidth> [--footprint] [--output=out.png]
  pixel-steganography decode <carrier> [--output=out] (--bitwidth=N | --footprint)
  pixel-steganography capacity <carrier> <bitwidth> [--footprint] [--name=file]
  pixel-steganography serve [--port=8080]`

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	commands := map[string]func([]string) error{
		"encode":   runEncode,
		"decode":   runDecode,
		"capacity": runCapacity,
		"serve":    runServe,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", args[0], usage)
		return 2
	}

	err := cmd(args[1:])
	var uerr usageError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.As(err, &uerr):
		fmt.Fprintf(os.Stderr, "pixel-steganography %s: error: %v\n%s\n", args[0], err, usage)
		return 2
	default:
		log.Printf("Error: %v", err)
		return 1
	}
}

type serverConfig struct {
	Port           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

func loadServerConfig(getenv func(string) string) (serverConfig, error) {
	config := serverConfig{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 32 << 20,
	}

	if port := getenv("PORT"); port != "" {
		config.Port = port
	}
	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}
	if raw := getenv("MAX_UPLOAD_MB"); raw != "" {
		mb, err := strconv.Atoi(raw)
		if err != nil || mb <= 0 {
			return config, fmt.Errorf("invalid MAX_UPLOAD_MB %q", raw)
		}
		config.MaxUploadBytes = int64(mb) << 20
	}
	return config, nil
}

func newRouter(config serverConfig) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"X-Stego-PSNR", "X-Stego-Capacity", "X-Stego-Message", "Content-Disposition"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	handlers.NewStegoHandler(config.MaxUploadBytes).Register(router)
	return router
}

func runServe(args []string) error {
	config, err := loadServerConfig(os.Getenv)
	if err != nil {
		return usageError{err}
	}

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringVarP(&config.Port, "port", "p", config.Port, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           newRouter(config),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", config.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST /api/v1/stego/encode   - Hide a file in an image or WAV carrier")
	log.Printf("  POST /api/v1/stego/decode   - Recover a hidden file")
	log.Printf("  POST /api/v1/stego/capacity - Report how many bytes a carrier can hold")
	log.Printf("  GET  /api/v1/health         - Health check")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %v", err)
	}
	log.Printf("Server stopped")
	return nil
}

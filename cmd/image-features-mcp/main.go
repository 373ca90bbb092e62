package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/config"
	"github.com/ironsheep/image-features-mcp/internal/logger"
	"github.com/ironsheep/image-features-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-features-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("image-features-mcp - MCP server for corner and blob detection")
			fmt.Println()
			fmt.Println("Usage: image-features-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  IMAGE_MCP_LOG_LEVEL=info       debug, info, warn or error")
			fmt.Println("  IMAGE_MCP_LOG_FORMAT=console   console or json")
			fmt.Println("  IMAGE_MCP_BACKEND=default      cpu, gpu or default")
			fmt.Println("  IMAGE_MCP_PATCH_SIZE=11        default detector patch size")
			fmt.Println("  IMAGE_MCP_THRESHOLD=0.1        default detector threshold")
			fmt.Println("  IMAGE_MCP_TENSOR_SIGMA=1.0     default structure tensor sigma")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr (stdout is for MCP protocol)
	log := logger.New(cfg)
	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("starting image features MCP server")

	backend, err := compute.Open(cfg.Backend, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(cfg.Backend)).Msg("no compute backend")
	}
	info := backend.Info()
	log.Info().Str("device", info.Name).Str("class", string(info.Class)).Int("workers", info.Workers).Msg("compute backend ready")

	server.Version = Version
	srv := server.New(cfg, backend, log)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

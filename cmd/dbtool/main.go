// Command dbtool applies storage migrations and moves persisted itinerary
// state between backends as a JSON snapshot.
//
//	dbtool migrate
//	dbtool export [-o snapshot.json]
//	dbtool import -i snapshot.json
//	dbtool clear
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"itinerary-planner-service/internal/adapters/storage"
	"itinerary-planner-service/internal/config"
	"itinerary-planner-service/internal/platform/logging"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage: dbtool [flags] migrate|export|import|clear")

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	fs := pflag.NewFlagSet("dbtool", pflag.ExitOnError)
	in := fs.StringP("in", "i", "", "snapshot file to import (default stdin)")
	out := fs.StringP("out", "o", "", "snapshot file to write (default stdout)")
	backendName := fs.String("backend", "", "override STORE_BACKEND")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, errUsage)
		fs.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), fs.Arg(0), *in, *out, *backendName); err != nil {
		log.Fatal().Err(err).Str("command", fs.Arg(0)).Msg("dbtool")
	}
}

func run(ctx context.Context, cmd, in, out, backendName string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if backendName != "" {
		cfg.StoreBackend = backendName
	}

	// Open applies pending migrations for SQL backends.
	backend, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.DBPath,
		DatabaseURL: cfg.DatabaseURL,
		RedisAddr:   cfg.RedisAddr,
		RedisPass:   cfg.RedisPassword,
		RedisDB:     cfg.RedisDB,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer backend.Close()

	switch cmd {
	case "migrate":
		log.Info().Str("store", backend.Name).Msg("schema ready")

	case "export":
		if out != "" {
			return exportFile(ctx, backend.KV, out)
		}
		return exportState(ctx, backend.KV, os.Stdout)

	case "import":
		var r io.Reader = os.Stdin
		if in != "" {
			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open snapshot file: %w", err)
			}
			defer f.Close()
			r = f
		}
		n, err := importState(ctx, backend.KV, r)
		if err != nil {
			return err
		}
		log.Info().Int("keys", n).Str("store", backend.Name).Msg("import complete")

	case "clear":
		if err := clearState(ctx, backend.KV); err != nil {
			return err
		}
		log.Info().Str("store", backend.Name).Msg("state cleared")

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
	return nil
}

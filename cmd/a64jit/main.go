// a64jit inspects the A64 translator: it translates, optimizes, disassembles
// and runs guest code images, and maintains the HLE function table.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/colorfulnotion/a64jit/jit/config"
	log "github.com/colorfulnotion/a64jit/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	Version = "dev"
	Commit  = "none"
)

type globalFlags struct {
	configPath   string
	logLevel     string
	logJSON      bool
	debug        string
	otlpEndpoint string
}

var (
	global   globalFlags
	file     = config.DefaultFile()
	provider *sdktrace.TracerProvider
)

func main() {
	var rootCmd = &cobra.Command{
		Use:               "a64jit",
		Short:             "A64 translator front end and optimizer tools",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownTracing()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.configPath, "config", "", "JSON configuration file")
	pf.StringVar(&global.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, crit)")
	pf.BoolVar(&global.logJSON, "logjson", false, "emit JSON log lines")
	pf.StringVar(&global.debug, "debug", "", "comma separated modules to enable debug logging for")
	pf.StringVar(&global.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP endpoint URL to export compiler traces to")

	rootCmd.AddCommand(
		newTranslateCmd(),
		newDisasmCmd(),
		newRunCmd(),
		newReplCmd(),
		newHLECmd(),
		newInfoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if global.configPath != "" {
		f, err := config.LoadFile(global.configPath)
		if err != nil {
			return err
		}
		file = f
	}

	level := file.LogLevel
	if global.logLevel != "" {
		if _, err := log.ParseLevel(global.logLevel); err != nil {
			return err
		}
		level = global.logLevel
	}
	if global.logJSON {
		log.InitJSONLogger(level)
	} else {
		log.InitLogger(level)
	}
	log.EnableModules(file.LogModules)
	log.EnableModules(global.debug)

	endpoint := file.OTLPEndpoint
	if global.otlpEndpoint != "" {
		endpoint = global.otlpEndpoint
	}
	if endpoint == "" {
		return nil
	}
	tp, err := newTracerProvider(cmd.Context(), endpoint)
	if err != nil {
		return err
	}
	provider = tp
	otel.SetTracerProvider(tp)
	log.Debug(log.JIT, "tracing enabled", "endpoint", endpoint)
	return nil
}

func shutdownTracing() {
	if provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to flush traces: %v\n", err)
	}
}

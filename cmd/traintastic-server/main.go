// Command traintastic-server runs the long-lived world process: it
// loads a world file, serves the session protocol to clients, and
// answers UDP discovery probes.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/traintastic/traintastic-go/pkg/auth"
	"github.com/traintastic/traintastic-go/pkg/config"
	"github.com/traintastic/traintastic-go/pkg/discovery"
	"github.com/traintastic/traintastic-go/pkg/logging"
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/registry"
	"github.com/traintastic/traintastic-go/pkg/session"
	"github.com/traintastic/traintastic-go/pkg/wire"
	"github.com/traintastic/traintastic-go/pkg/worldfile"
)

const serverVersion = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "traintastic-server",
		Short:         "Traintastic model railway control server",
		Version:       serverVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServer,
	}
	cmd.SetVersionTemplate("traintastic-server {{.Version}}\n")
	config.BindFlags(cmd.Flags())
	return cmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}
	opLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
	}

	fileLogger, err := logging.NewFileLogger(filepath.Join(cfg.DataDir, "traintastic.protocol.log"))
	if err != nil {
		return fmt.Errorf("opening protocol log: %w", err)
	}
	defer fileLogger.Close()
	protoLog := logging.NewMultiLogger(fileLogger, logging.NewZerologAdapter(opLog))

	reg := registry.NewRegistry(builtinFactory())
	if _, err := reg.Get("world", "world", nil); err != nil {
		return fmt.Errorf("constructing root world object: %w", err)
	}

	if err := openWorldFile(filepath.Join(cfg.DataDir, "traintastic.ctw"), opLog); err != nil {
		return fmt.Errorf("opening world file: %w", err)
	}

	srv := session.NewServer(session.ServerConfig{
		Address:     cfg.ListenAddress,
		Credentials: auth.NewStore(),
		Registry:    reg,
		Logger:      protoLog,
		Log:         opLog,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting session server: %w", err)
	}
	defer srv.Stop()

	responder := discovery.NewResponder("traintastic-server", listenPort(srv.Addr()), opLog)
	if cfg.DiscoveryPort != 0 {
		if err := responder.ListenAndServe(fmt.Sprintf(":%d", cfg.DiscoveryPort)); err != nil {
			return fmt.Errorf("starting discovery responder: %w", err)
		}
		defer responder.Close()
	}

	opLog.Info().Str("address", srv.Addr().String()).Str("datadir", cfg.DataDir).Msg("traintastic-server listening")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	opLog.Info().Msg("shutting down")
	return nil
}

// builtinFactory registers the small set of object classes the server
// exposes at startup. Real layout-driven classes (boards, decoders,
// vendor command stations) are constructed by the world loader once
// deep world-file parsing exists; see pkg/worldfile's doc comment for
// the current interface-only boundary.
func builtinFactory() *registry.Factory {
	f := registry.NewFactory()
	f.Register("world", func(id string) (*model.Object, error) {
		obj := model.NewObject(id, "world")
		obj.AddProperty(model.NewProperty("name", wire.PropertyTypeString, model.PropertyWritable|model.PropertyStore, "New layout"))
		return obj, nil
	})
	return f
}

// openWorldFile ensures a .ctw file exists at path, creating an empty
// one on first run. It does not yet populate the registry from the
// file's documents; see pkg/worldfile's Non-goal boundary.
func openWorldFile(path string, log zerolog.Logger) error {
	codec := worldfile.NewCTWCodec()

	if _, err := os.Stat(path); err == nil {
		world, err := codec.ReadFile(path)
		if err != nil {
			return err
		}
		log.Info().Strs("documents", world.DocumentNames()).Msg("loaded world file")
		return nil
	}

	world := worldfile.NewWorld()
	world.SetDocument("world.json", []byte(`{"name":"New layout"}`))
	if err := codec.WriteFile(path, world); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("created new world file")
	return nil
}

func listenPort(addr net.Addr) uint16 {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port)
}

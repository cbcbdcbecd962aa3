// Command msgboxd runs a standalone msgbox engine driven by its own
// run loop, optionally exposing the admin introspection HTTP API.
//
// It listens on every address named by -listen (repeatable), logs every
// event it receives, and echoes one-way messages and requests back to
// their sender with an "echo:" prefix — useful for exercising a deployment
// without writing a dedicated client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jroosing/msgbox/internal/admin"
	"github.com/jroosing/msgbox/internal/config"
	"github.com/jroosing/msgbox/internal/engine"
	"github.com/jroosing/msgbox/internal/logging"
	"github.com/jroosing/msgbox/internal/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type listenFlags []string

func (l *listenFlags) String() string { return fmt.Sprintf("%v", []string(*l)) }
func (l *listenFlags) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type cliFlags struct {
	configPath string
	listen     listenFlags
	adminAddr  string
	debug      bool
	jsonLogs   bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.Var(&f.listen, "listen", "Address to listen on, e.g. tcp://*:2345 (repeatable)")
	flag.StringVar(&f.adminAddr, "admin", "", "Override admin.host:admin.port, e.g. 127.0.0.1:8080")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}
	if flags.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})

	eng := engine.New(logger,
		engine.WithUDPTimeout(cfg.UDPGetDuration()),
		engine.WithTCPTimeout(cfg.TCPGetDuration()),
	)

	addrs := flags.listen
	if len(addrs) == 0 {
		addrs = listenFlags{"tcp://*:2345", "udp://*:2468"}
	}
	for _, addr := range addrs {
		if _, err := eng.Listen(addr, echoCallback(eng, logger), nil); err != nil {
			return fmt.Errorf("failed to listen on %q: %w", addr, err)
		}
		logger.Info("msgboxd listening", "addr", addr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flags.adminAddr != "" {
		host, port, err := splitHostPort(flags.adminAddr)
		if err != nil {
			return fmt.Errorf("bad -admin address: %w", err)
		}
		cfg.Admin.Enabled = true
		cfg.Admin.Host = host
		cfg.Admin.Port = port
	}

	var adminSrv *admin.Server
	if cfg.Admin.Enabled {
		adminSrv = admin.New(eng, cfg, logger)
		logger.Info("admin server starting", "addr", adminSrv.Addr())
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin server error", "err", err)
				cancel()
			}
		}()
	}

	logger.Info("msgboxd starting", "reactor_backlog", cfg.Reactor.Backlog)

	for ctx.Err() == nil {
		if err := eng.RunLoop(20 * time.Millisecond); err != nil {
			logger.Error("run loop error", "err", err)
			break
		}
	}

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(shutdownCtx)
		shutdownCancel()
		logger.Info("admin server stopped")
	}

	logger.Info("msgboxd stopped")
	return nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}

func echoCallback(eng *engine.Engine, logger *slog.Logger) engine.Callback {
	return func(c *engine.Conn, event engine.Event, data *wire.Data) {
		logArgs := []any{"event", event.String(), "trace_id", c.TraceID(), "remote", c.RemoteAddr().String()}
		if data != nil {
			logArgs = append(logArgs, "payload", data.Str())
		}
		logger.Info("msgbox event", logArgs...)

		switch event {
		case engine.EventMessage, engine.EventRequest:
			_ = eng.Send(c, wire.NewDataStr("echo:"+data.Str()))
		}
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"
	aqmtemplate "github.com/aquamarinepk/aqm/template"

	"github.com/appetiteclub/backoffice/internal/backoffice"
	"github.com/appetiteclub/backoffice/internal/events"
	"github.com/appetiteclub/backoffice/internal/orders"
	"github.com/appetiteclub/backoffice/internal/resource"
)

const (
	appNamespace = "BACKOFFICE"
	appName      = "backoffice"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	tmplMgr := aqmtemplate.NewManager(backoffice.AssetsFS, aqmtemplate.WithLogger(logger))

	// Restaurant API client
	apiURL, _ := config.GetString("api.url")
	client := resource.NewClient(apiURL, durationOr(config, "api.timeout", 10*time.Second, logger), logger)

	// In-process change bus, audited and optionally forwarded to NATS
	bus := events.NewBus(logger)
	audit := events.NewAuditSubscriber(bus, logger)
	natsURL, _ := config.GetString("nats.url")
	forwarder := events.NewNATSForwarder(natsURL, bus, logger)

	orderAPI := orders.NewOrderDataAccess(client)
	workspaces := orders.NewWorkspaceStore(
		durationOr(config, "workspace.ttl", 2*time.Hour, logger),
		func(id string) *orders.Workspace {
			return orders.NewWorkspace(id, orderAPI, bus, logger)
		},
		logger,
	)

	handler := backoffice.NewHandler(tmplMgr, client, workspaces, bus, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})

	lifecycles := []interface{}{tmplMgr, workspaces, audit, forwarder}

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func durationOr(config *aqm.Config, key string, fallback time.Duration, logger aqm.Logger) time.Duration {
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Info("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

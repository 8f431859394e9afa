package main

import (
	"flag"
	"log/slog"

	"mightstone-backend/internal/api"
	"mightstone-backend/internal/app"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/lib/util/serviceutil"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.json5", "Path to the json5 config file.")
	verbose := flag.Bool("v", false, "Enable debug logging.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	shutdown := InitTelemetry(ctx, cfg, *verbose)
	defer shutdown()

	tel := telemetry.SlogAPI{}
	a, err := app.New(cfg, tel)
	if err != nil {
		serviceutil.Fatal("init app", err)
	}
	defer a.Close()

	err = a.WatchDenylist(ctx)
	if err != nil {
		serviceutil.Fatal("watch denylist", err)
	}

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(a.Service, tel))

	err = serviceutil.StartHttpServer(ctx, cfg.Port, router)
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
	slog.Info("server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/tanvirhb/crm-backend/api/routes"
	"github.com/tanvirhb/crm-backend/internal/complaints"
	"github.com/tanvirhb/crm-backend/internal/customers"
	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/logs"
	"github.com/tanvirhb/crm-backend/internal/metrics"
	"github.com/tanvirhb/crm-backend/internal/records"
	"github.com/tanvirhb/crm-backend/internal/search"
	"github.com/tanvirhb/crm-backend/internal/store/firestorestore"
	"github.com/tanvirhb/crm-backend/internal/users"
	"github.com/tanvirhb/crm-backend/pkg/config"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap firebase", err)
		os.Exit(1)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		logg.Error(ctx, "failed to create auth client", err)
		os.Exit(1)
	}
	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		logg.Error(ctx, "failed to create firestore client", err)
		os.Exit(1)
	}
	defer func() {
		if err := firestoreClient.Close(); err != nil {
			logg.Error(ctx, "error closing firestore", err)
		}
	}()

	st, err := firestorestore.New(firestoreClient)
	if err != nil {
		logg.Error(ctx, "failed to wrap firestore client", err)
		os.Exit(1)
	}

	provider, err := identity.NewFirebaseClient(authClient)
	if err != nil {
		logg.Error(ctx, "failed to wrap auth client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(st)
	resolver, err := identity.NewResolver(userRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create identity resolver", err)
		os.Exit(1)
	}

	access, err := records.NewAccessor(st, logg)
	if err != nil {
		logg.Error(ctx, "failed to create record accessor", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}
	customersSvc, err := customers.NewService(access)
	if err != nil {
		logg.Error(ctx, "failed to create customers service", err)
		os.Exit(1)
	}
	logsSvc, err := logs.NewService(access, logg)
	if err != nil {
		logg.Error(ctx, "failed to create logs service", err)
		os.Exit(1)
	}
	complaintsSvc, err := complaints.NewService(access)
	if err != nil {
		logg.Error(ctx, "failed to create complaints service", err)
		os.Exit(1)
	}
	metricsSvc, err := metrics.NewService(access, logg)
	if err != nil {
		logg.Error(ctx, "failed to create metrics service", err)
		os.Exit(1)
	}
	searchSvc, err := search.NewService(access)
	if err != nil {
		logg.Error(ctx, "failed to create search service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			Store:      st,
			Verifier:   provider,
			Accounts:   provider,
			Resolver:   resolver,
			Users:      usersSvc,
			Customers:  customersSvc,
			Logs:       logsSvc,
			Complaints: complaintsSvc,
			Metrics:    metricsSvc,
			Search:     searchSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

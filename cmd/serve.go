package cmd

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/billing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/catalog"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/controller"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/service"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the meal subscriptions service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}

	var catalogSource catalog.Source
	switch cfg.Subscriptions.CatalogSource {
	case config.CatalogSourceFixture:
		logrus.Warn("Using fixture catalog source; prices are static development data")
		catalogSource = catalog.NewFixtureSource()
	default:
		catalogSource = catalog.NewHTTPSource(cfg.Upstream.CatalogBaseURL, cfg.Upstream.APIKey, httpClient)
	}

	billingClient := billing.NewHTTPClient(cfg.Upstream.BillingBaseURL, cfg.Upstream.APIKey, httpClient)
	subscriptionService := service.NewSubscriptionService(catalogSource, billingClient, cfg.Subscriptions)
	subscriptionController := controller.NewSubscriptionController(subscriptionService)

	e := setupHTTPServer(subscriptionController, cfg.App.APIKey)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(subscriptionController *controller.SubscriptionController, apiKey string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))
	if apiKey != "" {
		e.Use(echomiddleware.KeyAuthWithConfig(echomiddleware.KeyAuthConfig{
			KeyLookup: "header:X-Api-Key",
			Skipper: func(ctx echo.Context) bool {
				return ctx.Path() == "/health" || ctx.Path() == "/metrics"
			},
			Validator: func(key string, _ echo.Context) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
			},
		}))
	}

	e.GET("/health", subscriptionController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/plans", subscriptionController.ListPlans)

	pricing := e.Group("/pricing")
	pricing.POST("/quote", subscriptionController.QuoteSubscription)
	pricing.POST("/estimate", subscriptionController.EstimateTax)

	subscriptions := e.Group("/subscriptions")
	subscriptions.GET("/:id", subscriptionController.GetSubscription)
	subscriptions.POST("/:id/proration-preview", subscriptionController.PreviewVariantChange)
	subscriptions.POST("/:id/addons/preview", subscriptionController.PreviewAddOnChange)
	subscriptions.POST("/:id/change-variant-self", subscriptionController.ChangeVariantNow)
	subscriptions.POST("/:id/addons/change-self-now", subscriptionController.ChangeAddOnsNow)
	subscriptions.POST("/:id/schedule-change-variant-self", subscriptionController.ScheduleVariantChange)
	subscriptions.POST("/:id/addons/schedule-change-self", subscriptionController.ScheduleAddOnChange)

	return e
}

package main

import (
	"context"
	"fmt"

	"snapbook/config"
	"snapbook/cron"
	"snapbook/database"
	bookingRepo "snapbook/database/repository/booking"
	deviceRepo "snapbook/database/repository/device"
	photoRepo "snapbook/database/repository/photo"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/handlers"
	"snapbook/middleware"
	"snapbook/services/availability"
	"snapbook/services/booking"
	"snapbook/services/events"
	"snapbook/services/geocoding"
	"snapbook/services/moderation"
	"snapbook/services/notification"
	"snapbook/services/storage"
	"snapbook/services/tasks"
	"snapbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const devJWTSecret = "snapbook-dev-secret"

type repositories struct {
	bookings bookingRepo.BookingRepository
	statuses photographerRepo.StatusRepository
	photos   photoRepo.PhotoRepository
	tokens   deviceRepo.TokenRepository
}

// app owns every long-lived resource so main can release them in order.
type app struct {
	bundle     *handlers.HandlerBundle
	bus        *events.Bus
	dispatcher *notification.Dispatcher
	inline     *tasks.InlineReconcileQueue
	worker     *cron.Worker

	closers []func() error
}

func (a *app) close(logger *zap.Logger) {
	if a.worker != nil {
		a.worker.Shutdown()
	}
	if a.inline != nil {
		a.inline.Wait()
	}
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("main: failed to release resource", zap.Error(err))
		}
	}
}

func newRepositories(cfg *config.Config, a *app, checks map[string]utils.HealthCheck) (*repositories, error) {
	if cfg.IsMemory() {
		return &repositories{
			bookings: bookingRepo.NewMemoryBookingRepo(),
			statuses: photographerRepo.NewMemoryStatusRepo(),
			photos:   photoRepo.NewMemoryPhotoRepo(),
			tokens:   deviceRepo.NewMemoryTokenRepo(),
		}, nil
	}

	client, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return database.Disconnect(client) })
	checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	db := client.Database(cfg.DatabaseName)
	repos := &repositories{}
	if repos.bookings, err = bookingRepo.NewMongoBookingRepo(db); err != nil {
		return nil, err
	}
	if repos.statuses, err = photographerRepo.NewMongoStatusRepo(db); err != nil {
		return nil, err
	}
	if repos.photos, err = photoRepo.NewMongoPhotoRepo(db); err != nil {
		return nil, err
	}
	if repos.tokens, err = deviceRepo.NewMongoTokenRepo(db); err != nil {
		return nil, err
	}
	return repos, nil
}

func newPhotoStorage(cfg *config.Config, logger *zap.Logger) (storage.PhotoStorage, error) {
	if cfg.CloudinaryURL == "" {
		logger.Warn("main: CLOUDINARY_URL not set, serving photo refs from FILES_BASE_URL")
		return storage.StaticURLs{BaseURL: cfg.FilesBaseURL}, nil
	}
	cld, err := utils.NewCloudinary(cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewCloudinaryStorage(cld, cfg.CloudinaryFolder), nil
}

func newPusher(ctx context.Context, cfg *config.Config, tokens deviceRepo.TokenRepository, logger *zap.Logger) (notification.Pusher, error) {
	if cfg.IsMemory() || cfg.FirebaseCredentialsFile == "" {
		return notification.LogPusher{Logger: logger}, nil
	}
	client, err := utils.NewFCMClient(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, err
	}
	return notification.NewFCMPusher(tokens, client)
}

func newGeocoder(cfg *config.Config, cache *redis.Client, logger *zap.Logger) geocoding.Geocoder {
	var g geocoding.Geocoder = geocoding.NewGoogleGeocoder(cfg.GoogleAPIKey)
	if cache != nil {
		g = geocoding.NewCachedGeocoder(g, geocoding.NewRedisCache(cache), cfg.GeocodeCacheTTL, logger)
	}
	return g
}

// buildApp assembles repositories, services and handlers for cfg.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	checks := map[string]utils.HealthCheck{}

	repos, err := newRepositories(cfg, a, checks)
	if err != nil {
		a.close(logger)
		return nil, err
	}

	var cache *redis.Client
	if !cfg.IsMemory() {
		if cache, err = utils.NewCacheClient(cfg); err != nil {
			a.close(logger)
			return nil, err
		}
		a.closers = append(a.closers, cache.Close)
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}

	// Events: push notifications and, if configured, the broker.
	a.bus = events.NewBus(logger)
	pusher, err := newPusher(ctx, cfg, repos.tokens, logger)
	if err != nil {
		a.close(logger)
		return nil, err
	}
	a.dispatcher = notification.NewDispatcher(pusher, logger)
	a.bus.OnTransition("push", a.dispatcher.Handle)
	if cfg.RabbitMQURL != "" {
		fwd, err := events.NewAMQPForwarder(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		a.closers = append(a.closers, fwd.Close)
		a.bus.OnTransition("amqp", fwd.Forward)
	}

	availabilitySvc := availability.NewAvailabilityService(repos.statuses, repos.bookings, a.bus, logger)

	var reconciler booking.ReconcileScheduler
	if cfg.IsMemory() {
		a.inline = &tasks.InlineReconcileQueue{
			Reconcile: func(ctx context.Context, photographerID string) error {
				_, err := availabilitySvc.Reconcile(ctx, photographerID)
				return err
			},
			Delay:  cfg.AvailabilityRetryBackoff,
			Logger: logger,
		}
		reconciler = a.inline
	} else {
		client := asynq.NewClient(cron.RedisOpt(cfg))
		a.closers = append(a.closers, client.Close)
		reconciler = tasks.NewAsynqReconcileQueue(client, logger)

		if a.worker, err = cron.NewWorker(cfg, availabilitySvc, logger); err != nil {
			a.close(logger)
			return nil, err
		}
		if err := a.worker.Start(); err != nil {
			a.worker = nil
			a.close(logger)
			return nil, err
		}
	}

	bookingSvc := booking.NewBookingService(repos.bookings, availabilitySvc, reconciler, a.bus, logger)
	bookingSvc.RetryAttempts = cfg.AvailabilityRetryAttempts
	bookingSvc.RetryBackoff = cfg.AvailabilityRetryBackoff

	photoStore, err := newPhotoStorage(cfg, logger)
	if err != nil {
		a.close(logger)
		return nil, err
	}
	moderationSvc := moderation.NewModerationService(repos.photos, repos.bookings, photoStore, photoStore, a.bus, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("main: JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	jwt, err := utils.NewJWTManager(secret)
	if err != nil {
		a.close(logger)
		return nil, fmt.Errorf("jwt: %w", err)
	}

	monitor := utils.NewHealthMonitor(checks)
	monitor.Start(ctx, cfg.HealthCheckInterval)

	a.bundle = &handlers.HandlerBundle{
		JWT:          jwt,
		RateLimiter:  middleware.NewRateLimiter(cfg.MaxRequestsPerMin),
		Health:       monitor,
		Booking:      handlers.NewBookingHandler(bookingSvc, logger),
		Photographer: handlers.NewPhotographerHandler(availabilitySvc, logger),
		Photo:        handlers.NewPhotoHandler(moderationSvc, photoStore, repos.bookings, logger),
		Geocode:      handlers.NewGeocodeHandler(newGeocoder(cfg, cache, logger), logger),
		Device:       handlers.NewDeviceHandler(repos.tokens, logger),
	}
	return a, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcontext "github.com/SeakMengs/BasicPDF/internal/app_context"
	"github.com/SeakMengs/BasicPDF/internal/auth"
	"github.com/SeakMengs/BasicPDF/internal/config"
	"github.com/SeakMengs/BasicPDF/internal/controller"
	"github.com/SeakMengs/BasicPDF/internal/env"
	filestorage "github.com/SeakMengs/BasicPDF/internal/file_storage"
	"github.com/SeakMengs/BasicPDF/internal/middleware"
	ratelimiter "github.com/SeakMengs/BasicPDF/internal/rate_limiter"
	"github.com/SeakMengs/BasicPDF/internal/route"
	"github.com/SeakMengs/BasicPDF/internal/session"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	if cfg.Auth.SESSION_SECRET == "" {
		logger.Panic("SESSION_SECRET is required")
	}

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidations(v); err != nil {
			logger.Panic(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tmpDir, err := util.EnsureTempDir(cfg.PDF.TmpDir)
	if err != nil {
		logger.Panic(err)
	}

	toolkit := basicpdf.NewToolkit(&basicpdf.Config{
		TmpDir:            tmpDir,
		PreviewScale:      cfg.PDF.PreviewScale,
		StampResolution:   cfg.PDF.StampResolution,
		CertificateQRCode: cfg.PDF.CertificateQRCode,
	}, logger)

	sessions := session.NewStore(toolkit, cfg.Auth.SessionTTL, logger)
	go sessions.Run(ctx, max(cfg.Auth.SessionTTL/2, time.Minute))

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	app := appcontext.Application{
		Config:     &cfg,
		Logger:     logger,
		JWTService: jwtService,
		Sessions:   sessions,
		Toolkit:    toolkit,
	}

	if cfg.Minio.Enabled() {
		s3, err := filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}
		app.Outputs = filestorage.NewMinioStore(s3, &cfg.Minio, logger)
		logger.Infof("Storing outputs in minio bucket %s", cfg.Minio.BUCKET)
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	_controller := controller.NewController(&app)
	r := route.NewRouter(_controller, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v \n", err)
	}
}

package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"studynotes/pkg/metrics"
	"studynotes/pkg/middleware"
	"studynotes/pkg/validation"
)

type Options struct {
	EnableDevLogin bool
	Logger         logrus.FieldLogger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
}

func New(
	e *echo.Echo,
	opts Options,
	noteCtrl interface {
		Create(echo.Context) error
		List(echo.Context) error
		Get(echo.Context) error
		Delete(echo.Context) error
		Search(echo.Context) error
		Export(echo.Context) error
	},
	quizCtrl interface{ Generate(echo.Context) error },
	chatCtrl interface{ Ask(echo.Context) error },
	authCtrl interface {
		DevLogin(echo.Context) error
		WhoAmI(echo.Context) error
	},
	healthCtrl interface{ Health(echo.Context) error },
) *echo.Echo {
	e.HideBanner = true
	if e.Validator == nil {
		e.Validator = validation.NewRequestValidator()
	}

	e.Use(echoMiddleware.Recover())
	e.Use(metrics.Middleware(opts.Metrics))
	if opts.Logger != nil {
		e.Use(middleware.RequestLogger(opts.Logger))
	}
	e.Use(middleware.Identity())
	if opts.EnableDevLogin {
		e.Use(middleware.DevLogin())
		e.GET("/devlogin", authCtrl.DevLogin)
	}

	e.GET("/whoami", authCtrl.WhoAmI)
	e.GET("/health", healthCtrl.Health)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	// chat checks identity itself: a body userId may stand in when anonymous chat is enabled
	api.POST("/chat", chatCtrl.Ask)

	authed := api.Group("", middleware.RequireUser())
	authed.POST("/notes", noteCtrl.Create)
	authed.GET("/notes", noteCtrl.List)
	authed.GET("/notes/search", noteCtrl.Search)
	authed.GET("/notes/export", noteCtrl.Export)
	authed.GET("/notes/:id", noteCtrl.Get)
	authed.DELETE("/notes/:id", noteCtrl.Delete)
	authed.POST("/quiz/:noteId", quizCtrl.Generate)
	return e
}

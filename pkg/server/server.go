package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maximthomas/gortas-session/pkg/config"
	"github.com/maximthomas/gortas-session/pkg/controller"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/metrics"
	"github.com/maximthomas/gortas-session/pkg/middleware"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/pkg/errors"
	cors "github.com/rs/cors/wrapper/gin"
)

const shutdownTimeout = 10 * time.Second

func SetupRouter(conf config.Config, ss *session.Service) *gin.Engine {
	router := gin.Default()
	c := cors.New(cors.Options{
		AllowedOrigins:   conf.Server.Cors.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
		Debug:            gin.IsDebugging(),
	})
	router.Use(c)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var sc = controller.NewSessionController(ss)

	v1 := router.Group("/gortas/v1")
	{
		sess := v1.Group("/session", middleware.NewSessionMiddleware(ss))
		{
			sess.GET("", sc.SessionInfo)
			sess.PUT("", sc.UpdateSession)
			sess.DELETE("", sc.DeleteSession)
			sess.POST("/regenerate", sc.Regenerate)
		}
	}
	return router
}

// RunServer serves the session api until SIGINT or SIGTERM
func RunServer() error {
	logger := log.WithField("module", "server")
	ac := config.GetConfig()
	ss := session.GetSessionService()
	if ss == nil {
		return errors.New("session service is not initialized")
	}
	defer session.Shutdown()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(ac.Server.Port),
		Handler:           SetupRouter(ac, ss),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s, session handler %s", srv.Addr, ss.Handler())
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case sig := <-sigCh:
		logger.Infof("received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

package api

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stake-plus/countdown/src/config"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/metrics"
	"go.uber.org/zap"
)

// Deps wires the statistics API.
type Deps struct {
	Config  config.API
	Store   *countdown.Store
	Scorer  *countdown.Scorer
	Metrics *metrics.Metrics
	Log     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// New builds the statistics router.
func New(d Deps) (*gin.Engine, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Scorer == nil {
		d.Scorer = countdown.NewScorer(true)
	}

	corsCfg := cors.Config{
		AllowOrigins:  d.Config.AllowedOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "If-None-Match"},
		ExposeHeaders: []string{"Content-Length", "ETag", headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 || slices.Contains(corsCfg.AllowOrigins, "*") {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("api: cors: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(d.Log.Named("http")), cors.New(corsCfg))
	attachRoutes(r, d)
	return r, nil
}

func attachRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "countdowns": len(d.Store.IDs())})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	cdH := NewCountdowns(d.Store, d.Scorer, d.Now)
	limiter := NewRateLimiter(d.Config.RequestRate, d.Config.RequestBurst)

	v1 := r.Group("/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		v1.GET("/countdowns", cdH.List)

		one := v1.Group("/countdowns/:id")
		one.Use(cdH.Load)
		{
			one.GET("", cdH.Get)
			one.GET("/progress", cdH.Progress)
			one.GET("/leaderboard", cdH.Leaderboard)
			one.GET("/leaderboard/:author", cdH.Standing)
			one.GET("/contributors", cdH.Contributors)
			one.GET("/contributors/history", cdH.ContributorHistory)
			one.GET("/speed", cdH.Speed)
			one.GET("/eta", cdH.ETA)
			one.GET("/heatmap", cdH.Heatmap)
		}
	}
}

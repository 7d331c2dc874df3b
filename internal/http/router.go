package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/brightdesk/books-connect/internal/config"
	"github.com/brightdesk/books-connect/internal/http/handler"
	httpmiddleware "github.com/brightdesk/books-connect/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware. The provider callback and the
// health probe are the only routes that skip identity verification.
func NewRouter(cfg config.Config, connectHandler *handler.ConnectHandler, inviteHandler *handler.InviteHandler, auth *httpmiddleware.Auth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(httpmiddleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/callback", connectHandler.Callback)

	authed := r.Group("/", auth.VerifyIdentity)
	{
		authed.GET("/authorize", connectHandler.Authorize)
		authed.POST("/authorize", connectHandler.Authorize)
		authed.POST("/check-connection", connectHandler.CheckConnection)
		authed.POST("/disconnect", connectHandler.Disconnect)
		authed.POST("/get-entity", connectHandler.GetEntity)
		authed.POST("/create-bills", connectHandler.CreateBills)

		authed.POST("/invitations", inviteHandler.Send)
		authed.POST("/invitations/validate", inviteHandler.Validate)
	}

	return r
}

package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/container"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/handlers"
)

// RegisterMessageRoutes registers the message routes under g
func RegisterMessageRoutes(g *echo.Group, c *container.Container) {
	h := handlers.NewMessageHandler(c.MessageService, c.Log)

	messages := g.Group("/messages")
	{
		messages.POST("", h.AddMessage)            // POST /exposurelog/messages
		messages.GET("", h.FindMessages)           // GET /exposurelog/messages?instruments=LSSTCam
		messages.POST("/delete", h.DeleteMessages) // POST /exposurelog/messages/delete
		messages.GET("/:id", h.GetMessage)         // GET /exposurelog/messages/:id
		messages.PATCH("/:id", h.EditMessage)      // PATCH /exposurelog/messages/:id
		messages.DELETE("/:id", h.DeleteMessage)   // DELETE /exposurelog/messages/:id
	}
}

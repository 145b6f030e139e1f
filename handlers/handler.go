package handlers

import (
	"github.com/gin-gonic/gin"
	"vault/identity"
	"vault/location"
	"vault/media"
	"vault/messaging"
	"vault/middleware"
	"vault/presence"
	"vault/relationship"
	"vault/store"
	"vault/websocket"
)

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	identity  *identity.Service
	users     store.Users
	presence  *presence.Tracker
	friends   *relationship.Manager
	messages  *messaging.Service
	locations *location.Reporter
	media     *media.Store
	hub       *websocket.Hub
}

type Deps struct {
	Identity  *identity.Service
	Users     store.Users
	Presence  *presence.Tracker
	Friends   *relationship.Manager
	Messages  *messaging.Service
	Locations *location.Reporter
	Media     *media.Store
	Hub       *websocket.Hub
}

func New(d Deps) *Handler {
	return &Handler{
		identity:  d.Identity,
		users:     d.Users,
		presence:  d.Presence,
		friends:   d.Friends,
		messages:  d.Messages,
		locations: d.Locations,
		media:     d.Media,
		hub:       d.Hub,
	}
}

func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRequired := middleware.Auth(h.identity)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", authRequired, h.Logout)
	}

	users := r.Group("/api/users")
	users.Use(authRequired)
	{
		users.GET("/me", h.GetCurrentUser)
		users.PUT("/me", h.UpdateCurrentUser)
		users.POST("/me/heartbeat", h.Heartbeat)
		users.POST("/me/location", h.ReportLocation)
		users.GET("/me/location/history", h.LocationHistory)
		users.GET("/search", h.SearchUsers)
		users.GET("/:id/presence", h.GetPresence)
	}

	friends := r.Group("/api/friends")
	friends.Use(authRequired)
	{
		friends.GET("", h.GetFriends)
		friends.POST("", h.AddFriend)
	}

	chats := r.Group("/api/chats")
	chats.Use(authRequired)
	{
		chats.GET("/:peer_id/messages", h.GetMessages)
		chats.POST("/:peer_id/messages", h.SendMessage)
	}

	files := r.Group("/api/files")
	files.Use(authRequired)
	{
		files.POST("/upload", h.UploadFile)
	}
	r.GET("/files/:filename", h.ServeFile)

	r.GET("/ws", h.hub.Serve)
}

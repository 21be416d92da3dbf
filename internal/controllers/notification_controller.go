package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/fleet"
)

type NotificationController struct {
	coord *fleet.Coordinator
}

func NewNotificationController(coord *fleet.Coordinator) *NotificationController {
	return &NotificationController{coord: coord}
}

// List returns the caller's notifications, newest first.
func (nc *NotificationController) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := nc.coord.ListNotifications(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, list)
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	n, err := nc.coord.MarkNotificationRead(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, n)
}

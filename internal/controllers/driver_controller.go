package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/models"
)

// DriverController serves the driver workflow endpoints under /drivers/:id.
type DriverController struct {
	coord *fleet.Coordinator
}

func NewDriverController(coord *fleet.Coordinator) *DriverController {
	return &DriverController{coord: coord}
}

type locationInput struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type studentStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// StartRoute handles POST /drivers/:id/start-route.
func (dc *DriverController) StartRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := dc.coord.StartRoute(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		if res != nil {
			respondPartial(c, err, res)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// EndRoute handles POST /drivers/:id/end-route.
func (dc *DriverController) EndRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := dc.coord.EndRoute(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		if res != nil {
			respondPartial(c, err, res)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// UpdateLocation handles POST /drivers/:id/update-location.
func (dc *DriverController) UpdateLocation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("UpdateLocation: invalid input payload")
		respondMessage(c, http.StatusBadRequest, "Invalid input: latitude and longitude are required")
		return
	}
	res, err := dc.coord.UpdateLocation(c.Request.Context(), a, c.Param("id"), models.GeoPoint{
		Latitude:  *input.Latitude,
		Longitude: *input.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// MarkStudentStatus handles POST /drivers/:id/students/:studentId/status.
func (dc *DriverController) MarkStudentStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input studentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: status is required")
		return
	}
	res, err := dc.coord.MarkStudentStatus(c.Request.Context(), a, c.Param("id"), c.Param("studentId"), input.Status)
	if err != nil {
		if res != nil {
			respondPartial(c, err, res)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// MarkStopCompleted handles POST /drivers/:id/stops/:stopId/complete.
func (dc *DriverController) MarkStopCompleted(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := dc.coord.MarkStopCompleted(c.Request.Context(), a, c.Param("id"), c.Param("stopId"))
	if err != nil {
		if res != nil {
			respondPartial(c, err, res)
			return
		}
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// ListStudents handles GET /drivers/:id/students.
func (dc *DriverController) ListStudents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	students, err := dc.coord.ListAssignedStudents(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, students)
}

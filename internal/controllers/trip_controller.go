package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/fleet"
)

type TripController struct {
	coord *fleet.Coordinator
}

func NewTripController(coord *fleet.Coordinator) *TripController {
	return &TripController{coord: coord}
}

type createTripInput struct {
	DriverID string `json:"driver_id" binding:"required"`
	RouteID  string `json:"route_id" binding:"required"`
}

func (tc *TripController) CreateTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input createTripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	trip, err := tc.coord.CreateTrip(c.Request.Context(), a, input.DriverID, input.RouteID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, trip)
}

func (tc *TripController) GetTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	trip, err := tc.coord.GetTrip(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

func (tc *TripController) StartTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	trip, err := tc.coord.StartTrip(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

func (tc *TripController) EndTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	trip, err := tc.coord.EndTrip(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

// PickStudent handles POST /trips/:id/students/:studentId.
func (tc *TripController) PickStudent(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	trip, err := tc.coord.PickStudent(c.Request.Context(), a, c.Param("id"), c.Param("studentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, trip)
}

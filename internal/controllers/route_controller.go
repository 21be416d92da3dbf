package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/geo"
	"school_bus_tracker/internal/models"
)

// SchoolFinder resolves the school account behind a school user.
type SchoolFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.School, error)
}

// RouteStore persists routes with their stops.
type RouteStore interface {
	Create(ctx context.Context, route *models.Route) error
	FindByID(ctx context.Context, id string) (*models.Route, error)
}

type RouteController struct {
	schools SchoolFinder
	routes  RouteStore
}

func NewRouteController(schools SchoolFinder, routes RouteStore) *RouteController {
	return &RouteController{schools: schools, routes: routes}
}

// RouteResponse mirrors models.Route with the geometry rendered as GeoJSON.
type RouteResponse struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Name            string          `json:"name"`
	SchoolID        string          `json:"school_id"`
	DistanceMeters  *float64        `json:"distance_meters,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	StartAddressID  *string         `json:"start_address_id,omitempty"`
	EndAddressID    *string         `json:"end_address_id,omitempty"`
	Geometry        json.RawMessage `json:"geometry,omitempty"`
	Stops           []models.Stop   `json:"stops"`
}

func toRouteResponse(route *models.Route) (RouteResponse, error) {
	g, err := geo.DecodeRouteGeometry(route.Geometry)
	if err != nil {
		return RouteResponse{}, err
	}
	stops := route.Stops
	if stops == nil {
		stops = []models.Stop{}
	}
	return RouteResponse{
		ID:              route.ID,
		CreatedAt:       route.CreatedAt,
		UpdatedAt:       route.UpdatedAt,
		Name:            route.Name,
		SchoolID:        route.SchoolID,
		DistanceMeters:  route.DistanceMeters,
		DurationMinutes: route.DurationMinutes,
		StartAddressID:  route.StartAddressID,
		EndAddressID:    route.EndAddressID,
		Geometry:        g,
		Stops:           stops,
	}, nil
}

type stopInput struct {
	Name      string   `json:"name"`
	Order     int      `json:"order" binding:"required,min=1"`
	AddressID *string  `json:"address_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type createRouteInput struct {
	Name            string          `json:"name" binding:"required"`
	DistanceMeters  *float64        `json:"distance_meters"`
	DurationMinutes *int            `json:"duration_minutes"`
	StartAddressID  *string         `json:"start_address_id"`
	EndAddressID    *string         `json:"end_address_id"`
	Geometry        json.RawMessage `json:"geometry"`
	Stops           []stopInput     `json:"stops"`
}

// buildStops validates stop input. Orders must be unique; a stop either
// references an address or carries coordinates for a new one.
func buildStops(in []stopInput) ([]models.Stop, error) {
	seen := make(map[int]bool, len(in))
	stops := make([]models.Stop, 0, len(in))
	for _, s := range in {
		if seen[s.Order] {
			return nil, fmt.Errorf("%w: duplicate stop order %d", fleet.ErrValidation, s.Order)
		}
		seen[s.Order] = true

		stop := models.Stop{Name: s.Name, Order: s.Order, AddressID: s.AddressID, Status: models.StopStatusPending}
		if s.AddressID == nil && s.Latitude != nil && s.Longitude != nil {
			if !geo.ValidCoordinate(*s.Latitude, *s.Longitude) {
				return nil, fmt.Errorf("%w: stop %d has invalid coordinates", fleet.ErrValidation, s.Order)
			}
			stop.Address = &models.Address{Name: s.Name, Latitude: *s.Latitude, Longitude: *s.Longitude}
		}
		if stop.Name == "" && stop.Address == nil && stop.AddressID == nil {
			return nil, fmt.Errorf("%w: stop %d needs a name or an address", fleet.ErrValidation, s.Order)
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

// CreateRoute handles POST /school/routes.
func (rc *RouteController) CreateRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input createRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	school, err := rc.schools.FindByUserID(c.Request.Context(), a.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	stops, err := buildStops(input.Stops)
	if err != nil {
		respondError(c, err)
		return
	}

	route := &models.Route{
		Name:            input.Name,
		SchoolID:        school.ID,
		DistanceMeters:  input.DistanceMeters,
		DurationMinutes: input.DurationMinutes,
		StartAddressID:  input.StartAddressID,
		EndAddressID:    input.EndAddressID,
		Stops:           stops,
	}

	if len(input.Geometry) > 0 && string(input.Geometry) != "null" {
		wkbBytes, err := geo.EncodeRouteGeometry(input.Geometry)
		if err != nil {
			logrus.WithError(err).Warn("CreateRoute: invalid geometry")
			respondMessage(c, http.StatusBadRequest, "Invalid geometry: "+err.Error())
			return
		}
		route.Geometry = wkbBytes
		if route.DistanceMeters == nil {
			if length, err := geo.LineLengthMeters(wkbBytes); err == nil {
				route.DistanceMeters = &length
			}
		}
	}

	if err := rc.routes.Create(c.Request.Context(), route); err != nil {
		respondError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"route_id":  route.ID,
		"school_id": school.ID,
		"stops":     len(route.Stops),
	}).Info("Route created.")

	resp, err := toRouteResponse(route)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, resp)
}

// GetRoute handles GET /school/routes/:id. Schools only see their own routes.
func (rc *RouteController) GetRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	route, err := rc.routes.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !a.IsAdmin() {
		school, err := rc.schools.FindByUserID(c.Request.Context(), a.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if route.SchoolID != school.ID {
			respondMessage(c, http.StatusForbidden, "route belongs to another school")
			return
		}
	}
	resp, err := toRouteResponse(route)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, resp)
}

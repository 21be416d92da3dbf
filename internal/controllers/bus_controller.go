package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/cache"
	"school_bus_tracker/internal/geo"
	"school_bus_tracker/internal/models"
)

type BusStore interface {
	Create(ctx context.Context, bus *models.Bus) error
	FindByID(ctx context.Context, id string) (*models.Bus, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Bus, error)
}

type DriverAssigner interface {
	FindByID(ctx context.Context, id string) (*models.Driver, error)
	AssignBus(ctx context.Context, driverID, busID string) (*models.Driver, error)
}

// NearbyFinder answers proximity queries over cached bus positions.
type NearbyFinder interface {
	NearbyBuses(ctx context.Context, point models.GeoPoint, radiusKm float64, limit int) ([]cache.NearbyBus, error)
}

type BusController struct {
	schools SchoolFinder
	buses   BusStore
	routes  RouteStore
	drivers DriverAssigner
	nearby  NearbyFinder
}

// NewBusController wires the school bus endpoints. nearby may be nil when no
// location cache is configured.
func NewBusController(schools SchoolFinder, buses BusStore, routes RouteStore, drivers DriverAssigner, nearby NearbyFinder) *BusController {
	return &BusController{schools: schools, buses: buses, routes: routes, drivers: drivers, nearby: nearby}
}

type createBusInput struct {
	BusNumber string  `json:"bus_number" binding:"required"`
	Capacity  int     `json:"capacity" binding:"required,min=1"`
	RouteID   *string `json:"route_id"`
}

// CreateBus handles POST /school/buses. New buses start Idle and empty.
func (bc *BusController) CreateBus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input createBusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid bus input: "+err.Error())
		return
	}

	school, err := bc.schools.FindByUserID(c.Request.Context(), a.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	if input.RouteID != nil && *input.RouteID != "" {
		route, err := bc.routes.FindByID(c.Request.Context(), *input.RouteID)
		if err != nil {
			respondError(c, err)
			return
		}
		if route.SchoolID != school.ID {
			respondMessage(c, http.StatusForbidden, "route belongs to another school")
			return
		}
	}

	bus := &models.Bus{
		BusNumber:       input.BusNumber,
		Capacity:        input.Capacity,
		Status:          models.BusStatusIdle,
		StudentsOnBoard: []models.OnboardStudent{},
		SchoolID:        school.ID,
		RouteID:         input.RouteID,
	}
	if err := bc.buses.Create(c.Request.Context(), bus); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, bus)
}

type assignDriverInput struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// AssignDriver handles PUT /school/buses/:id/driver.
func (bc *BusController) AssignDriver(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input assignDriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	school, err := bc.schools.FindByUserID(ctx, a.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	bus, err := bc.buses.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if bus.SchoolID != school.ID {
		respondMessage(c, http.StatusForbidden, "bus belongs to another school")
		return
	}
	driver, err := bc.drivers.FindByID(ctx, input.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	if driver.SchoolID != nil && *driver.SchoolID != school.ID {
		respondMessage(c, http.StatusForbidden, "driver belongs to another school")
		return
	}

	driver, err = bc.drivers.AssignBus(ctx, driver.ID, bus.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"bus_id":    bus.ID,
		"driver_id": driver.ID,
	}).Info("Driver assigned to bus.")
	respondData(c, http.StatusOK, driver)
}

// NearbyResult pairs a cached position with the bus record.
type NearbyResult struct {
	cache.NearbyBus
	BusNumber string           `json:"bus_number"`
	Status    models.BusStatus `json:"status"`
}

// Nearby handles GET /admin/buses/nearby?lat=&lng=&radius_km=&limit=.
func (bc *BusController) Nearby(c *gin.Context) {
	if bc.nearby == nil {
		respondMessage(c, http.StatusServiceUnavailable, "location cache is not configured")
		return
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || !geo.ValidCoordinate(lat, lng) {
		respondMessage(c, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	if err != nil || radius <= 0 {
		respondMessage(c, http.StatusBadRequest, "radius_km must be positive")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		respondMessage(c, http.StatusBadRequest, "limit must be positive")
		return
	}

	ctx := c.Request.Context()
	hits, err := bc.nearby.NearbyBuses(ctx, models.GeoPoint{Latitude: lat, Longitude: lng}, radius, limit)
	if err != nil {
		logrus.WithError(err).Error("Nearby bus lookup failed.")
		respondMessage(c, http.StatusServiceUnavailable, "location cache unavailable")
		return
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.BusID)
	}
	buses, err := bc.buses.FindByIDs(ctx, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	byID := make(map[string]models.Bus, len(buses))
	for _, b := range buses {
		byID[b.ID] = b
	}

	// Cache members without a bus row are stale and skipped.
	out := make([]NearbyResult, 0, len(hits))
	for _, h := range hits {
		b, ok := byID[h.BusID]
		if !ok {
			continue
		}
		out = append(out, NearbyResult{NearbyBus: h, BusNumber: b.BusNumber, Status: b.Status})
	}
	respondData(c, http.StatusOK, out)
}

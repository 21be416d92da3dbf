// Package fleettest provides memory-backed repositories and a recording
// pusher for exercising the coordinator without a database.
package fleettest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/models"
)

// Store holds every entity the coordinator touches. Reads return copies so
// that unsaved mutations never leak into the store.
type Store struct {
	mu sync.Mutex

	drivers       map[string]models.Driver
	buses         map[string]models.Bus
	routes        map[string]models.Route
	stops         map[string]models.Stop
	addresses     map[string]models.Address
	students      map[string]models.Student
	studentOrder  []string
	notifications []models.Notification
	trips         map[string]models.Trip

	failNotify map[string]error
	failBus    error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		drivers:    make(map[string]models.Driver),
		buses:      make(map[string]models.Bus),
		routes:     make(map[string]models.Route),
		stops:      make(map[string]models.Stop),
		addresses:  make(map[string]models.Address),
		students:   make(map[string]models.Student),
		trips:      make(map[string]models.Trip),
		failNotify: make(map[string]error),
	}
}

// Repositories exposes the store through the coordinator's interfaces.
func (s *Store) Repositories() fleet.Repositories {
	return fleet.Repositories{
		Drivers:       driverRepo{s},
		Buses:         busRepo{s},
		Routes:        routeRepo{s},
		Students:      studentRepo{s},
		Notifications: notificationRepo{s},
		Trips:         tripRepo{s},
	}
}

// FailNotificationsFor makes Create fail for the given recipients.
func (s *Store) FailNotificationsFor(userIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range userIDs {
		s.failNotify[id] = fmt.Errorf("%w: notification insert rejected", fleet.ErrPersistence)
	}
}

// FailBusSaves makes every bus Save return err. Pass nil to clear.
func (s *Store) FailBusSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBus = err
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// PutDriver inserts or replaces a driver.
func (s *Store) PutDriver(d models.Driver) models.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&d.ID)
	s.drivers[d.ID] = d
	return d
}

// PutBus inserts or replaces a bus.
func (s *Store) PutBus(b models.Bus) models.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&b.ID)
	s.buses[b.ID] = copyBus(b)
	return b
}

// PutAddress inserts or replaces an address.
func (s *Store) PutAddress(a models.Address) models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&a.ID)
	s.addresses[a.ID] = a
	return a
}

// PutRoute inserts or replaces a route. Its Stops are stored separately and
// reassembled on read.
func (s *Store) PutRoute(r models.Route) models.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&r.ID)
	for i := range r.Stops {
		ensureID(&r.Stops[i].ID)
		r.Stops[i].RouteID = r.ID
		stop := r.Stops[i]
		stop.Address = nil
		s.stops[stop.ID] = stop
	}
	stored := r
	stored.Stops = nil
	s.routes[r.ID] = stored
	return r
}

// PutStudent inserts or replaces a student. Fetch order is insertion order.
func (s *Store) PutStudent(st models.Student) models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&st.ID)
	if _, ok := s.students[st.ID]; !ok {
		s.studentOrder = append(s.studentOrder, st.ID)
	}
	s.students[st.ID] = copyStudent(st)
	return st
}

// PutTrip inserts or replaces a trip.
func (s *Store) PutTrip(t models.Trip) models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&t.ID)
	s.trips[t.ID] = copyTrip(t)
	return t
}

// Bus returns the stored bus.
func (s *Store) Bus(id string) models.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBus(s.buses[id])
}

// Stop returns the stored stop.
func (s *Store) Stop(id string) models.Stop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops[id]
}

// Student returns the stored student.
func (s *Store) Student(id string) models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStudent(s.students[id])
}

// Trip returns the stored trip.
func (s *Store) Trip(id string) models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTrip(s.trips[id])
}

// Notifications returns every stored notification in insertion order.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

// NotificationsFor returns the messages stored for one recipient, in
// insertion order.
func (s *Store) NotificationsFor(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

func copyBus(b models.Bus) models.Bus {
	if b.StudentsOnBoard != nil {
		b.StudentsOnBoard = append([]models.OnboardStudent{}, b.StudentsOnBoard...)
	}
	if b.LastLocationUpdate != nil {
		ts := *b.LastLocationUpdate
		b.LastLocationUpdate = &ts
	}
	return b
}

func copyStudent(st models.Student) models.Student {
	if st.Parents != nil {
		st.Parents = append([]models.Parent{}, st.Parents...)
	}
	return st
}

func copyTrip(t models.Trip) models.Trip {
	if t.PickedUpStudents != nil {
		t.PickedUpStudents = append(t.PickedUpStudents[:0:0], t.PickedUpStudents...)
	}
	return t
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", fleet.ErrNotFound, kind, id)
}

type driverRepo struct{ s *Store }

func (r driverRepo) FindByID(_ context.Context, id string) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, notFound("driver", id)
	}
	return &d, nil
}

type busRepo struct{ s *Store }

func (r busRepo) FindByID(_ context.Context, id string) (*models.Bus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.buses[id]
	if !ok {
		return nil, notFound("bus", id)
	}
	b = copyBus(b)
	return &b, nil
}

func (r busRepo) Save(_ context.Context, bus *models.Bus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failBus != nil {
		return r.s.failBus
	}
	r.s.buses[bus.ID] = copyBus(*bus)
	return nil
}

type routeRepo struct{ s *Store }

func (r routeRepo) FindByID(_ context.Context, id string) (*models.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	route, ok := r.s.routes[id]
	if !ok {
		return nil, notFound("route", id)
	}
	route.Stops = nil
	for _, stop := range r.s.stops {
		if stop.RouteID != id {
			continue
		}
		if stop.AddressID != nil {
			if a, ok := r.s.addresses[*stop.AddressID]; ok {
				stop.Address = &a
			}
		}
		route.Stops = append(route.Stops, stop)
	}
	sort.Slice(route.Stops, func(i, j int) bool { return route.Stops[i].Order < route.Stops[j].Order })
	return &route, nil
}

func (r routeRepo) SaveStop(_ context.Context, stop *models.Stop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *stop
	stored.Address = nil
	r.s.stops[stop.ID] = stored
	return nil
}

func (r routeRepo) ResetStops(_ context.Context, routeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, stop := range r.s.stops {
		if stop.RouteID == routeID && stop.Status != models.StopStatusCancelled {
			stop.Status = models.StopStatusPending
			r.s.stops[id] = stop
		}
	}
	return nil
}

type studentRepo struct{ s *Store }

func (r studentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, notFound("student", id)
	}
	st = copyStudent(st)
	return &st, nil
}

func (r studentRepo) FindByBus(_ context.Context, busID string) ([]models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Student{}
	for _, id := range r.s.studentOrder {
		st := r.s.students[id]
		if st.OnBus(busID) {
			out = append(out, copyStudent(st))
		}
	}
	return out, nil
}

func (r studentRepo) Save(_ context.Context, st *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.students[st.ID] = copyStudent(*st)
	return nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failNotify[n.UserID]; err != nil {
		return err
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) FindByID(_ context.Context, id string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, notFound("notification", id)
}

func (r notificationRepo) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Notification
	// Walk backwards so equal timestamps still list newest first.
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].UserID == userID {
			out = append(out, r.s.notifications[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id {
			r.s.notifications[i].Read = true
			return nil
		}
	}
	return notFound("notification", id)
}

type tripRepo struct{ s *Store }

func (r tripRepo) Create(_ context.Context, t *models.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&t.ID)
	if _, exists := r.s.trips[t.ID]; exists {
		return fmt.Errorf("%w: duplicate trip %s", fleet.ErrPersistence, t.ID)
	}
	r.s.trips[t.ID] = copyTrip(*t)
	return nil
}

func (r tripRepo) FindByID(_ context.Context, id string) (*models.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[id]
	if !ok {
		return nil, notFound("trip", id)
	}
	t = copyTrip(t)
	return &t, nil
}

func (r tripRepo) Save(_ context.Context, t *models.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trips[t.ID]; !ok {
		return notFound("trip", t.ID)
	}
	r.s.trips[t.ID] = copyTrip(*t)
	return nil
}

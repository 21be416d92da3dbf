package fleet

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/models"
)

// StudentStatusResult is returned by MarkStudentStatus.
type StudentStatusResult struct {
	Student       *models.Student `json:"student"`
	Bus           *models.Bus     `json:"bus"`
	Notifications FanOutResult    `json:"notifications"`
}

// MarkStudentStatus records a pickup, drop-off or other status change for a
// student on the driver's bus, keeps the bus roster in step and notifies the
// student's parents.
func (c *Coordinator) MarkStudentStatus(ctx context.Context, actor Actor, driverID, studentID, rawStatus string) (*StudentStatusResult, error) {
	status, err := models.ParseStudentStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w: %v", ErrValidation, err)
	}
	driver, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w", err)
	}
	student, err := c.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w", err)
	}
	if !student.OnBus(bus.ID) {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w: student %s is not assigned to bus %s", ErrForbidden, student.ID, bus.ID)
	}
	if err := applyRoster(bus, student.ID, status); err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w", err)
	}

	student.Status = status
	if err := c.students.Save(ctx, student); err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w", err)
	}
	if err := c.buses.Save(ctx, bus); err != nil {
		return nil, fmt.Errorf("fleet.MarkStudentStatus: %w", err)
	}

	message := fmt.Sprintf("%s has been %s by the driver.", student.Name(), status.Display())
	result := &StudentStatusResult{
		Student:       student,
		Bus:           bus,
		Notifications: c.FanOut(ctx, parentRecipients(*student), message),
	}
	c.log.WithFields(logrus.Fields{
		"driver_id":  driver.ID,
		"bus_id":     bus.ID,
		"student_id": student.ID,
		"status":     status,
		"passengers": bus.CurrentPassengers,
	}).Info("Student status updated.")
	return result, wrapFanOut("fleet.MarkStudentStatus", result.Notifications)
}

// applyRoster updates the onboard list and passenger count for a status
// change. A pickup on a full bus fails before anything is touched. A student
// already on board is not counted twice, and a drop-off only counts down for
// a student who was on board.
func applyRoster(bus *models.Bus, studentID string, status models.StudentStatus) error {
	record := bus.OnboardRecord(studentID)
	onboard := record != nil && record.PickedUp && !record.DroppedOff

	switch status {
	case models.StudentStatusPickedUp:
		if onboard {
			return nil
		}
		if bus.CurrentPassengers >= bus.Capacity {
			return fmt.Errorf("%w: bus %s is at capacity (%d)", ErrPreconditionFailed, bus.ID, bus.Capacity)
		}
		if record == nil {
			bus.StudentsOnBoard = append(bus.StudentsOnBoard, models.OnboardStudent{StudentID: studentID})
			record = &bus.StudentsOnBoard[len(bus.StudentsOnBoard)-1]
		}
		record.PickedUp = true
		record.DroppedOff = false
		bus.CurrentPassengers++
	case models.StudentStatusDroppedOff:
		if record == nil {
			return nil
		}
		record.DroppedOff = true
		if onboard && bus.CurrentPassengers > 0 {
			bus.CurrentPassengers--
		}
	}
	return nil
}

// StopResult is returned by MarkStopCompleted.
type StopResult struct {
	Stop          *models.Stop `json:"stop"`
	Bus           *models.Bus  `json:"bus"`
	Notifications FanOutResult `json:"notifications"`
}

// MarkStopCompleted completes a stop on the bus's route and notifies the
// parents of every student on the bus. Completing the last open stop while
// the bus is On Route moves the bus to Arrived.
func (c *Coordinator) MarkStopCompleted(ctx context.Context, actor Actor, driverID, stopID string) (*StopResult, error) {
	driver, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w", err)
	}
	if !bus.HasRoute() {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w: bus %s has no route", ErrPreconditionFailed, bus.ID)
	}
	route, err := c.routes.FindByID(ctx, *bus.RouteID)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w", err)
	}
	stop := route.FindStop(stopID)
	if stop == nil {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w: stop %s is not on route %s", ErrNotFound, stopID, route.ID)
	}

	stop.Status = models.StopStatusCompleted
	if err := c.routes.SaveStop(ctx, stop); err != nil {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w", err)
	}
	if bus.Status == models.BusStatusOnRoute && route.AllStopsDone() {
		bus.Status = models.BusStatusArrived
		if err := c.buses.Save(ctx, bus); err != nil {
			return nil, fmt.Errorf("fleet.MarkStopCompleted: %w", err)
		}
		c.log.WithFields(logrus.Fields{
			"bus_id":   bus.ID,
			"route_id": route.ID,
		}).Info("Bus arrived.")
	}

	students, err := c.students.FindByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkStopCompleted: %w", err)
	}
	result := &StopResult{
		Stop:          stop,
		Bus:           bus,
		Notifications: c.FanOut(ctx, parentRecipients(students...), fmt.Sprintf("Stop %s has been completed.", stop.DisplayName())),
	}
	c.log.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"stop_id":   stop.ID,
		"order":     stop.Order,
	}).Info("Stop completed.")
	return result, wrapFanOut("fleet.MarkStopCompleted", result.Notifications)
}

// ListAssignedStudents returns the students on the driver's bus in pickup
// order: by the order of the route stop at each student's pickup address.
// Students without a matching stop keep their fetch order at the end.
func (c *Coordinator) ListAssignedStudents(ctx context.Context, actor Actor, driverID string) ([]models.Student, error) {
	_, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.ListAssignedStudents: %w", err)
	}
	students, err := c.students.FindByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("fleet.ListAssignedStudents: %w", err)
	}
	if students == nil {
		students = []models.Student{}
	}
	if !bus.HasRoute() {
		return students, nil
	}
	route, err := c.routes.FindByID(ctx, *bus.RouteID)
	if err != nil {
		return nil, fmt.Errorf("fleet.ListAssignedStudents: %w", err)
	}

	stopOrder := make(map[string]int, len(route.Stops))
	for _, s := range route.Stops {
		if s.AddressID == nil {
			continue
		}
		if prev, ok := stopOrder[*s.AddressID]; !ok || s.Order < prev {
			stopOrder[*s.AddressID] = s.Order
		}
	}
	rank := func(s models.Student) (int, bool) {
		if s.PickupAddressID == nil {
			return 0, false
		}
		o, ok := stopOrder[*s.PickupAddressID]
		return o, ok
	}
	sort.SliceStable(students, func(i, j int) bool {
		oi, okI := rank(students[i])
		oj, okJ := rank(students[j])
		switch {
		case okI && okJ:
			return oi < oj
		case okI:
			return true
		default:
			return false
		}
	})
	return students, nil
}

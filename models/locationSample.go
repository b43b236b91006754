package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

// LocationSample is the last-known device position, reported by the mobile
// client and held in Redis only. The tracker reads it each cycle; it is not
// durable data.
type LocationSample struct {
	EmployeeId int       `json:"employee_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	IsMock     bool      `json:"is_mock"`
	DeviceId   string    `json:"device_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Pointer coordinates for the same reason as NewCheckIn: zero is a valid
// position, absence is not.
type NewLocationSample struct {
	Lat      *float64 `json:"lat" binding:"required"`
	Lng      *float64 `json:"lng" binding:"required"`
	Accuracy float64  `json:"accuracy"`
	IsMock   bool     `json:"is_mock"`
}

// sampleTTL bounds how stale a last-known position may get before the tracker
// ignores it.
const sampleTTL = 10 * time.Minute

func locationSampleKey(companyId string, employeeId int) string {
	return fmt.Sprintf("LocationSample:%s:%d", companyId, employeeId)
}

// ReportLocationSample stores the device's position as the employee's
// last-known value. A mock-location flag raises a SecurityAlert (and, when
// the feature flag demands it, rejects the sample).
func ReportLocationSample(ctx context.Context, input *NewLocationSample) (*LocationSample, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}
	if input.Lat == nil || input.Lng == nil {
		return nil, errors.New("coordinates are required")
	}
	deviceId, _ := utils.GetDeviceIdFromContext(ctx)

	sample := LocationSample{
		EmployeeId: employeeId,
		Lat:        *input.Lat,
		Lng:        *input.Lng,
		Accuracy:   input.Accuracy,
		IsMock:     input.IsMock,
		DeviceId:   deviceId,
		RecordedAt: time.Now().UTC(),
	}

	if input.IsMock {
		raiseSecurityAlert(ctx, &SecurityAlert{
			CompanyId:  companyId,
			EmployeeId: employeeId,
			Type:       SecurityAlertTypeMockLocation,
			DeviceId:   deviceId,
			Lat:        input.Lat,
			Lng:        input.Lng,
			Detail:     "mock location provider reported by device",
		})
		if config.RejectMockLocations() {
			return nil, errors.New("mock locations are not accepted")
		}
	}

	if err := config.SetRedisObject(locationSampleKey(companyId, employeeId), &sample, sampleTTL); err != nil {
		return nil, err
	}
	return &sample, nil
}

// GetLocationSample returns the last-known position, or (nil, nil) when there
// is none or it expired.
func GetLocationSample(ctx context.Context, companyId string, employeeId int) (*LocationSample, error) {
	var sample *LocationSample
	exists, err := config.GetRedisObject(locationSampleKey(companyId, employeeId), &sample)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return sample, nil
}

// Stale reports whether the sample is too old to act on.
func (s *LocationSample) Stale(now time.Time) bool {
	return now.Sub(s.RecordedAt) > sampleTTL
}

package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/geocode"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
	"github.com/sirupsen/logrus"
)

// Geocoder is what the tracker needs from the geocode package. Failure is
// always non-fatal; the place name degrades to raw coordinates.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

// Tracker refreshes every active employee's ActiveLocation document from the
// freshest device sample. One cycle runs every PollInterval; a failed cycle
// is retried after the shorter ErrorBackoff, forever.
type Tracker struct {
	Logger       *logrus.Logger
	Geocoder     Geocoder
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

func New(logger *logrus.Logger) *Tracker {
	t := &Tracker{
		Logger:       logger,
		PollInterval: 2 * time.Minute,
		ErrorBackoff: 15 * time.Second,
	}
	client, err := geocode.NewClient()
	if err != nil {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"field": "Tracker",
			}).Warn("reverse geocoding disabled: " + err.Error())
		}
		return t
	}
	t.Geocoder = geocode.NewCachedClient(client)
	return t
}

func (t *Tracker) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := t.PollInterval
		if err := t.cycle(ctx); err != nil {
			config.LogError(t.Logger, "tracker", "Run", "cycle failed", nil, err)
			wait = t.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (t *Tracker) cycle(ctx context.Context) error {
	// One tracker instance per deployment does the sweep; replicas skip
	// the cycle when the lock is held.
	lock, err := utils.ObtainRedisLock(ctx, "tracker:cycle", t.PollInterval)
	if err != nil {
		if errors.Is(err, utils.ErrLockBusy) {
			return nil
		}
		return err
	}
	defer func() { _ = lock.Release(ctx) }()

	locations, err := models.ListTrackedLocations(ctx)
	if err != nil {
		return err
	}

	for _, loc := range locations {
		if err := t.refresh(ctx, loc); err != nil {
			config.LogError(t.Logger, "tracker", "cycle", "refresh failed", loc.EmployeeId, err)
		}
	}
	return nil
}

func (t *Tracker) refresh(ctx context.Context, loc *models.ActiveLocation) error {
	now := time.Now().UTC()

	sample, err := models.GetLocationSample(ctx, loc.CompanyId, loc.EmployeeId)
	if err != nil {
		return err
	}
	if sample == nil || sample.Stale(now) {
		if t.Logger != nil {
			t.Logger.WithFields(logrus.Fields{
				"field":       "Tracker",
				"company_id":  loc.CompanyId,
				"employee_id": loc.EmployeeId,
			}).Debug("no fresh location sample; skipping")
		}
		return nil
	}

	placeEn := models.FormatCoordinates(sample.Lat, sample.Lng)
	placeAr := placeEn
	if t.Geocoder != nil {
		if place, err := t.Geocoder.Reverse(ctx, sample.Lat, sample.Lng); err == nil {
			placeEn = place.NameEn
			placeAr = place.NameAr
		} else if t.Logger != nil {
			t.Logger.WithFields(logrus.Fields{
				"field":       "Tracker",
				"employee_id": loc.EmployeeId,
			}).Debug("reverse geocode failed, using coordinates: " + err.Error())
		}
	}

	// The employee may have checked out since this cycle started; the session
	// record is re-read so a raced checkout never gets a ghost update.
	empCtx := utils.SetCompanyIdInContext(ctx, loc.CompanyId)
	open, err := models.GetOpenAttendance(empCtx, loc.EmployeeId)
	if err != nil {
		return err
	}
	if open == nil {
		return nil
	}

	// The check-in anchor is taken from the attendance record, never from
	// this cycle's clock.
	err = models.OverwriteActiveLocation(empCtx, loc.CompanyId, loc.EmployeeId,
		sample.Lat, sample.Lng, placeEn, placeAr, open.CheckInTime, now)
	if err != nil {
		return err
	}

	return models.AppendLocationMovement(empCtx, &models.LocationMovement{
		CompanyId:    loc.CompanyId,
		EmployeeId:   loc.EmployeeId,
		AttendanceId: open.ID,
		Lat:          sample.Lat,
		Lng:          sample.Lng,
		PlaceEn:      placeEn,
		PlaceAr:      placeAr,
		RecordedAt:   sample.RecordedAt,
	})
}

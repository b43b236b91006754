package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"text/template"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "SA"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

func GenerateUniqueFilename() string {
	return fmt.Sprintf("%d_%d", time.Now().UnixNano(), rand.Intn(1000))
}

// ProcessValidationErrors flattens gin binding errors into field->tag pairs
// for the error response body.
func ProcessValidationErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}
	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func NewFloat(v float64) *float64 {
	return &v
}

func lastMonthsRange(months int) (time.Time, time.Time) {
	now := time.Now()
	return now.AddDate(0, -months, 0), now
}

func thisMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

func previousMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetStartAndEndDateForFilter resolves the named report range filters.
func GetStartAndEndDateForFilter(filterType string) (time.Time, time.Time, error) {
	switch filterType {
	case "last6months":
		start, end := lastMonthsRange(6)
		return start, end, nil
	case "last12months":
		start, end := lastMonthsRange(12)
		return start, end, nil
	case "thisMonth":
		start, end := thisMonthRange()
		return start, end, nil
	case "previousMonth":
		start, end := previousMonthRange()
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, errors.New("invalid filter type")
	}
}

// ExecTemplate renders a SQL fragment template with the given data.
func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}

// DereferencePtr safely dereferences ptr; nil yields the zero value or the
// optional default.
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// UniqueSlice returns slice with duplicate elements removed, order kept.
func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool, len(slice))
	var result []T
	for _, elm := range slice {
		if !seen[elm] {
			seen[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

// ErrLockBusy is returned when another holder owns the redis lock.
var ErrLockBusy = errors.New("lock is held elsewhere")

// ObtainRedisLock takes a best-effort distributed lock. The caller must
// release it. Returns ErrLockBusy when another instance holds the key, so
// background loops can skip a cycle instead of duplicating work.
func ObtainRedisLock(ctx context.Context, key string, ttl time.Duration) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lock, err := locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockBusy
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

package models

import (
	"github.com/hudoorhq/hudoor_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list if exists
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Employee) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Employee](obj.ID)
}

func (obj Employee) RemoveAllRedis() error {
	return utils.RemoveRedisList[Employee](obj.CompanyId)
}

func (obj ShiftConfig) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[ShiftConfig](obj.ID)
}

func (obj ShiftConfig) RemoveAllRedis() error {
	return utils.RemoveRedisList[ShiftConfig](obj.CompanyId)
}

func (obj DeviceBinding) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[DeviceBinding](obj.ID)
}

func (obj DeviceBinding) RemoveAllRedis() error {
	return nil
}

func (obj LeaveRequest) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[LeaveRequest](obj.ID)
}

func (obj LeaveRequest) RemoveAllRedis() error {
	return nil
}

package cache

import (
	"errors"
	"fmt"
)

// ErrUnknownDriver is reported for a driver name no store implements.
var ErrUnknownDriver = errors.New("cache: unknown driver")

// Driver identifies the backend that stores query results.
type Driver string

const (
	DriverNull   Driver = "null"
	DriverFile   Driver = "file"
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
	DriverNATS   Driver = "nats"
	DriverSQL    Driver = "sql"
	DriverDynamo Driver = "dynamodb"
)

// ParseDriver maps a configuration value onto a known driver. An empty value
// selects the memory driver; anything else unrecognized is an error.
func ParseDriver(value string) (Driver, error) {
	switch d := Driver(value); d {
	case "":
		return DriverMemory, nil
	case DriverNull, DriverFile, DriverMemory, DriverRedis, DriverNATS, DriverSQL, DriverDynamo:
		return d, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownDriver, value)
	}
}

// Package config exposes typed access to application settings. Durations are
// stored as plain integers in the unit named by the getter.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations of a given unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

type SignedIntConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
}

type UnsignedIntConfig interface {
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
}

type FloatConfig interface {
	GetFloat32(key string) float32
	GetFloat64(key string) float64
}

// Config is the read side of the application configuration. Missing keys
// yield zero values.
type Config interface {
	io.Closer
	TimeConfig
	SignedIntConfig
	UnsignedIntConfig
	FloatConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray splits a "a,b,c" value, dropping blanks.
	GetArray(key string) []string

	// GetMap parses a "k1:v1,k2:v2" value.
	GetMap(key string) map[string]string
}

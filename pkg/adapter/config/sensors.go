package config

import (
	"context"
	"crypto/subtle"
)

// SensorRegistry verifies sensor credentials against the statically
// configured token map, implementing port.SensorRegistry.
type SensorRegistry struct {
	tokens map[string]string
}

func NewSensorRegistry(tokens map[string]string) *SensorRegistry {
	r := &SensorRegistry{tokens: make(map[string]string, len(tokens))}
	for id, token := range tokens {
		r.tokens[id] = token
	}
	return r
}

func (r *SensorRegistry) Authenticate(
	ctx context.Context, sensorID, token string,
) bool {
	expected, ok := r.tokens[sensorID]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare(
		[]byte(expected), []byte(token),
	) == 1
}

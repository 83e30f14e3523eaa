// Package payload decodes the type dependent part of a frame into typed
// sensor values and encodes records for transport.
//
// Multi-byte fields are big-endian on the wire. Wind speed and precipitation
// depth are packed BCD.
package payload

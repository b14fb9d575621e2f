// Package presenter drives a presenter paw: a small linear actuator that
// slides out to a front limit switch and back to a rear one.
//
// # Installation
//
//	go install github.com/gwillem/presenter/cmd/paw@latest
//
// # Usage
//
// Write a configuration with the pins your board uses:
//
//	paw setup
//
// Time a full stroke and store a matching timeout:
//
//	paw calibrate --save
//
// Then move the paw, or watch it live:
//
//	paw present
//	paw retract
//	paw monitor
//
// Build with -tags disablegpio on machines without a GPIO host.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/paw: CLI with motion, setup, calibrate and monitor commands
//   - pkg/paw: Controller, breakers, configuration and calibration
//   - pkg/motor: Two-pin motor driver and limit switches
//   - pkg/hal: GPIO pin lookup and claiming
//   - pkg/operate: Queued motions and live state for monitors
//   - pkg/logging: Structured logging setup
package presenter

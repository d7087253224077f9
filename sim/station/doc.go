// Package station builds single-queue service stations on top of the sim engine: an
// arrival generator feeding a ResourceUnit, with system-time and occupancy responses.
// It is the model behind the CLI and the end-to-end tests.
package station

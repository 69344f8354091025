package types

import "deskctl-go/bus"

// Bus topics shared between services.
var (
	// TopicCalibration carries the current calibration.Table (retained).
	TopicCalibration = bus.T("desk", "calibration")
	// TopicScreen carries the rendered display.Frame (retained).
	TopicScreen = bus.T("desk", "screen")
	// TopicHeight carries the latest Height (retained).
	TopicHeight = bus.T("desk", "height")
	// TopicKeys carries remote key levels as a Button set.
	TopicKeys = bus.T("desk", "keys")
	// TopicStatus carries the heartbeat's Status (retained).
	TopicStatus = bus.T("desk", "status")
)

package domain

import "time"

// Protocol limits. These bound client-controlled payloads and are not configurable.
const (
	MaxDocumentBytes   = 2_000_000
	MaxWhiteboardBytes = 5_000_000
	MaxChatContent     = 4000
	MaxProfileIDs      = 100
)

// Defaults for the tunable limits in config.LimitsConfig.
const (
	DefaultChatMessages      = 120
	DefaultChatWindow        = time.Minute
	DefaultWhiteboardTTL     = time.Hour
	DefaultWhiteboardSweep   = time.Minute
	DefaultSnapshotRetention = 10
	DefaultMessagePage       = 50
	DefaultMessagePageMax    = 200
)

package server

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second

	// Mobile objects dampen their vertical flee component so they stay
	// roughly in the play plane.
	verticalFleeFactor = 0.35

	// Minimum gap between per-player gameState unicasts.
	gameStateMinInterval = 100 * time.Millisecond

	maxChatLength = 256

	radiationMax = 100.0
)

package config

import "time"

// UI constants
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF

	EmbedDefaultColor = 0x2B2D31

	ProgressBarLength = 10
	StatsPerPage      = 10
)

// Timeouts
const (
	DefaultQueryTimeout  = 15 * time.Second
	DefaultVerifyTimeout = 30 * time.Second
)

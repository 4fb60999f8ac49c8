package types

type RunMode string

const (
	// ModeLocal runs the billing worker against the in-memory bus
	ModeLocal RunMode = "local"
	// ModeConsumer runs the billing worker against kafka
	ModeConsumer RunMode = "consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

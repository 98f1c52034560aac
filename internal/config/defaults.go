package config

const (
	defaultMinidumpDir         = "~/.local/share/crashqueue/minidumps"
	defaultStateDir            = "~/.local/share/crashqueue/state"
	defaultEndpoint            = "https://notify.bugsnag.com/minidump"
	defaultRequestTimeout      = 30
	defaultPollInterval        = 10
	defaultMaxMinidumpMiB      = 20
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultPayloadVersion      = "4.0"
	defaultDeliveryUserAgent   = "crashqueue/dev"
	defaultHistoryRetentionDay = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MinidumpDir: defaultMinidumpDir,
			StateDir:    defaultStateDir,
		},
		Delivery: Delivery{
			Endpoint:       defaultEndpoint,
			RequestTimeout: defaultRequestTimeout,
			PollInterval:   defaultPollInterval,
			MaxMinidumpMiB: defaultMaxMinidumpMiB,
			PayloadVersion: defaultPayloadVersion,
			UserAgent:      defaultDeliveryUserAgent,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDay,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

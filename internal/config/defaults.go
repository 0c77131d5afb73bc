package config

const (
	defaultDataDir              = "~/.local/share/freighter"
	defaultLogDir               = "~/.local/share/freighter/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultMaxConcurrent        = 3
	defaultMaxRetries           = 3
	defaultBaseRetryDelayMs     = 500
	defaultRetryDelayMultiplier = 2.0
	defaultMaxRetryDelayMs      = 30000
	defaultOutageThreshold      = 3
	defaultProbeURL             = "https://www.google.com/generate_204"
	defaultProbeInterval        = 10
	defaultProbeTimeout         = 5
	defaultS3Region             = "us-east-1"
	defaultPartSizeMiB          = 8
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Engine: Engine{
			MaxConcurrent:        defaultMaxConcurrent,
			MaxRetries:           defaultMaxRetries,
			BaseRetryDelayMs:     defaultBaseRetryDelayMs,
			RetryDelayMultiplier: defaultRetryDelayMultiplier,
			MaxRetryDelayMs:      defaultMaxRetryDelayMs,
			OutageThreshold:      defaultOutageThreshold,
		},
		Network: Network{
			ProbeURL:             defaultProbeURL,
			ProbeIntervalSeconds: defaultProbeInterval,
			ProbeTimeoutSeconds:  defaultProbeTimeout,
		},
		S3: S3{
			Region:      defaultS3Region,
			PartSizeMiB: defaultPartSizeMiB,
		},
		Rules: []Rule{
			{Category: "document", Patterns: []string{".pdf", ".doc", ".txt", ".md"}},
			{Category: "image", Patterns: []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}},
			{Category: "video", Patterns: []string{".mp4", ".mkv", ".mov", ".webm"}},
			{Category: "archive", Patterns: []string{".zip", ".tar", ".gz", ".7z"}},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

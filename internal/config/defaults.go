package config

const (
	defaultConfigPath         = "~/.config/squeeze/config.toml"
	defaultLogDir             = "~/.local/share/squeeze/logs"
	defaultHistoryDB          = "~/.local/share/squeeze/history.db"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultProfileName        = "H264 ReEncode (Default)"
	defaultCancelGraceSeconds = 10
	defaultDiagnosticLines    = 40
	defaultEventBuffer        = 16
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir(),
			LogDir:     defaultLogDir,
			HistoryDB:  defaultHistoryDB,
		},
		Encoder: Encoder{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			DefaultProfile:     defaultProfileName,
			CancelGraceSeconds: defaultCancelGraceSeconds,
			DiagnosticLines:    defaultDiagnosticLines,
			EventBuffer:        defaultEventBuffer,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
	}
}

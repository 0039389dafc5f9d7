package config

const (
	defaultDataDir         = "~/.local/share/mindcare/data"
	defaultUploadsDir      = "~/.local/share/mindcare/uploads"
	defaultRecordingsDir   = "~/.local/share/mindcare/recordings"
	defaultLogDir          = "~/.local/share/mindcare/logs"
	defaultBind            = "127.0.0.1:3000"
	defaultStorageDriver   = "json"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultWhisperModel    = "large-v3-turbo"
	defaultLanguage        = "es"
	defaultPollInterval    = 3
	defaultMaxPollAttempts = 40
	defaultNotifyTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			UploadsDir:    defaultUploadsDir,
			RecordingsDir: defaultRecordingsDir,
			LogDir:        defaultLogDir,
			Bind:          defaultBind,
		},
		Storage: Storage{
			Driver: defaultStorageDriver,
		},
		Transcription: Transcription{
			Enabled:         false,
			Model:           defaultWhisperModel,
			Language:        defaultLanguage,
			Diarize:         true,
			PollIntervalSec: defaultPollInterval,
			MaxPollAttempts: defaultMaxPollAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Appointments:   true,
			Transcription:  true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

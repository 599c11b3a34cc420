package config

const (
	defaultSaveFolder         = "~/framerip/frames"
	defaultStateDir           = "~/.local/share/framerip/state"
	defaultLogDir             = "~/.local/share/framerip/logs"
	defaultPlayerBinary       = "vlc"
	defaultSceneFormat        = "png"
	defaultPollIntervalMS     = 250
	defaultStopWaitMS         = 3000
	defaultProcessWaitTimeout = 10
	defaultStartupTimeout     = 5
	defaultMaxSnapshotWait    = 120
	defaultRequestedFPS       = 1.0
	defaultDesktopFPS         = 2.0
	defaultDesktopDuration    = 30
	defaultFFprobeBinary      = "ffprobe"
	defaultMetadataTool       = "mediainfo"
	defaultInterpreter        = "python3"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SaveFolder: defaultSaveFolder,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Player: Player{
			Binary:      defaultPlayerBinary,
			SceneFormat: defaultSceneFormat,
		},
		Capture: Capture{
			PollIntervalMS:     defaultPollIntervalMS,
			StopWaitMS:         defaultStopWaitMS,
			ProcessWaitTimeout: defaultProcessWaitTimeout,
			StartupTimeout:     defaultStartupTimeout,
			MaxSnapshotWait:    defaultMaxSnapshotWait,
			RequestedFPS:       defaultRequestedFPS,
		},
		Desktop: Desktop{
			FPS:      defaultDesktopFPS,
			Duration: defaultDesktopDuration,
		},
		Tools: Tools{
			FFprobe:      defaultFFprobeBinary,
			MetadataTool: defaultMetadataTool,
		},
		Cropper: Cropper{
			Interpreter: defaultInterpreter,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

const (
	defaultLogDir             = "~/.local/share/pmtm/logs"
	defaultStagingDir         = "~/.cache/pmtm/staging"
	defaultFFmpeg             = "ffmpeg"
	defaultFFprobe            = "ffprobe"
	defaultMagick             = "magick"
	defaultProbeConcurrency   = 4
	defaultProbeTimeoutSecond = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// defaultEncodings is the order scene text is decoded in. latin1 accepts any
// byte sequence, so cp1252 is only reached when latin1 is removed from the list.
var defaultEncodings = []string{"utf-8", "latin1", "cp1252"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir(),
			LogDir:     defaultLogDir,
			StagingDir: defaultStagingDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			Magick:  defaultMagick,
		},
		Scan: Scan{
			Encodings: append([]string(nil), defaultEncodings...),
		},
		Probe: Probe{
			Concurrency:    defaultProbeConcurrency,
			Thumbnails:     true,
			TimeoutSeconds: defaultProbeTimeoutSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

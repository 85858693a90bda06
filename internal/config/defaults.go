package config

const (
	defaultConfigPath       = "~/.config/heicbatch/config.toml"
	defaultOutputDir        = "~/Pictures/heicbatch"
	defaultLogDir           = "~/.local/share/heicbatch/logs"
	defaultFormat           = "png"
	defaultQuality          = 90
	defaultYieldMS          = 50
	defaultJobTimeout       = 120
	defaultMaxFileSize      = "50 MB"
	defaultMaxFiles         = 100
	defaultConverterTool    = "vips"
	defaultArchivePrefix    = "heic-to"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	outputDirEnv            = "HEICBATCH_OUTPUT_DIR"
	AdmissionModeHEIC       = "heic"
	AdmissionModeMixed      = "mixed"
	ConverterToolVips       = "vips"
	ConverterToolHeifDec    = "heif-dec"
	ConverterToolImageMagic = "magick"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Conversion: Conversion{
			Format:     defaultFormat,
			Quality:    defaultQuality,
			YieldMS:    defaultYieldMS,
			JobTimeout: defaultJobTimeout,
		},
		Admission: Admission{
			Mode:        AdmissionModeHEIC,
			MaxFileSize: defaultMaxFileSize,
			MaxFiles:    defaultMaxFiles,
		},
		Converter: Converter{
			Tool: defaultConverterTool,
		},
		Output: Output{
			ArchivePrefix:    defaultArchivePrefix,
			TimestampArchive: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

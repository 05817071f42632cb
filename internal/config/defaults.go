package config

const (
	defaultFFmpeg        = "ffmpeg"
	defaultMagick        = "magick"
	defaultPadding       = 4
	defaultFrameRate     = 24
	defaultMethod        = "local"
	defaultThumb         = "320x180"
	defaultThumbCine     = "640x272"
	defaultVideoReview   = "1920x1080"
	defaultTitleRes      = "1920x1080"
	defaultTitleFont     = "Arial"
	defaultTitleFontSize = 120
	defaultTitleColor    = "ffffff"
	defaultTitleBG       = "transparent"
	defaultLogFormat     = "text"
	defaultLogLevel      = "info"
	defaultMetadata      = "none"
	defaultDirPath       = "~/.local/share/mediaconv/jobs"
	defaultSQLitePath    = "~/.local/share/mediaconv/jobs.db"
	defaultS3Prefix      = "mediaconv/jobs"
	defaultFarmRetries   = 3
	defaultFarmTimeout   = 30
	defaultSpoolPath     = "~/.local/share/mediaconv/spool.db"
	defaultSpoolLockPath = "~/.local/share/mediaconv/spool.lock"
)

// File type categories used in the extension map.
const (
	FileTypeMovie    = "movie"
	FileTypeSequence = "sequence"
	FileTypeImage    = "image"
)

// DefaultExtMap returns the compiled extension to file type map.
func DefaultExtMap() map[string]string {
	return map[string]string{
		".mov":  FileTypeMovie,
		".mp4":  FileTypeMovie,
		".m4v":  FileTypeMovie,
		".avi":  FileTypeMovie,
		".mkv":  FileTypeMovie,
		".mxf":  FileTypeMovie,
		".webm": FileTypeMovie,
		".wmv":  FileTypeMovie,
		".exr":  FileTypeSequence,
		".dpx":  FileTypeSequence,
		".cin":  FileTypeSequence,
		".jpg":  FileTypeImage,
		".jpeg": FileTypeImage,
		".png":  FileTypeImage,
		".tif":  FileTypeImage,
		".tiff": FileTypeImage,
		".tga":  FileTypeImage,
		".psd":  FileTypeImage,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FFmpeg: defaultFFmpeg,
			Magick: defaultMagick,
		},
		Defaults: Defaults{
			Padding:        defaultPadding,
			FrameRate:      defaultFrameRate,
			Method:         defaultMethod,
			DeleteExisting: true,
		},
		Resolution: Resolution{
			Thumb:       defaultThumb,
			ThumbCine:   defaultThumbCine,
			VideoReview: defaultVideoReview,
			Title:       defaultTitleRes,
		},
		Title: Title{
			Font:       defaultTitleFont,
			FontSize:   defaultTitleFontSize,
			FontColor:  defaultTitleColor,
			Background: defaultTitleBG,
		},
		ExtMap: DefaultExtMap(),
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metadata: Metadata{
			Backend:    defaultMetadata,
			DirPath:    defaultDirPath,
			SQLitePath: defaultSQLitePath,
			S3Prefix:   defaultS3Prefix,
		},
		Farm: Farm{
			MaxRetries:     defaultFarmRetries,
			TimeoutSeconds: defaultFarmTimeout,
		},
		Spool: Spool{
			Path:     defaultSpoolPath,
			LockPath: defaultSpoolLockPath,
		},
	}
}

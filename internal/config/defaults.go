package config

const (
	defaultDataDir          = "~/.local/share/lenscap"
	defaultLogDir           = "~/.local/share/lenscap/logs"
	defaultDownloadDir      = "~/lenscap/downloads"
	defaultRequestTimeout   = 30
	defaultUserAgent        = "Lenscap/0.1.0"
	defaultMaxFileSizeMiB   = 25
	defaultPollInterval     = 2
	defaultPollInitialDelay = 3
	defaultPollMaxAttempts  = 30
	defaultGalleryPageSize  = 20
	defaultGallerySortOrder = "newest"
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultAllowedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		API: API{
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		Upload: Upload{
			MaxFileSizeMiB:    defaultMaxFileSizeMiB,
			AllowedExtensions: defaultAllowedExtensions(),
			PollInterval:      defaultPollInterval,
			PollInitialDelay:  defaultPollInitialDelay,
			PollMaxAttempts:   defaultPollMaxAttempts,
		},
		Gallery: Gallery{
			PageSize:  defaultGalleryPageSize,
			SortOrder: defaultGallerySortOrder,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Uploads:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

// Selection sources.
const (
	SourceRenderer = "renderer"
	SourceScryfall = "scryfall"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageHTTP  = "http"
)

// UploadSecretEnv names the environment variable that supplies the shared
// upload secret for both the HTTP storage backend and the art server.
const UploadSecretEnv = "CARDCAP_UPLOAD_SECRET"

const (
	defaultConfigPath            = "~/.config/cardcap/config.toml"
	defaultStateDir              = "~/.local/share/cardcap"
	defaultLogDir                = "~/.local/share/cardcap/logs"
	defaultRendererURL           = "http://127.0.0.1:4242/"
	defaultWindowWidth           = 1200
	defaultWindowHeight          = 900
	defaultElementTimeout        = 15
	defaultRetryAttempts         = 3
	defaultFrame                 = "Seventh"
	defaultSource                = SourceRenderer
	defaultStrategy              = "earliest"
	defaultNoMatch               = "earliest"
	defaultScryfallBaseURL       = "https://api.scryfall.com"
	defaultScryfallTimeout       = 20
	defaultScryfallPageDelayMS   = 100
	defaultArtPath               = "local_art/art"
	defaultArtTimeout            = 10
	defaultUpscaleModel          = "RealESRGAN_x2plus"
	defaultUpscaleAPIPrefix      = "/gradio_api"
	defaultUpscaleFactor         = 4
	defaultUpscaleTimeout        = 300
	defaultStorageBackend        = StorageLocal
	defaultStorageLocalDir       = "~/cardcap"
	defaultStabilizeTimeout      = 10
	defaultStabilizePollInterval = 100
	defaultStabilizeWindow       = 3
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultServerBind            = "127.0.0.1:4243"
	defaultServerRoot            = "~/cardcap"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Renderer: Renderer{
			URL:            defaultRendererURL,
			Headless:       true,
			WindowWidth:    defaultWindowWidth,
			WindowHeight:   defaultWindowHeight,
			ElementTimeout: defaultElementTimeout,
			RetryAttempts:  defaultRetryAttempts,
			Frame:          defaultFrame,
		},
		Selection: Selection{
			Source:   defaultSource,
			Strategy: defaultStrategy,
			NoMatch:  defaultNoMatch,
		},
		Scryfall: Scryfall{
			BaseURL:        defaultScryfallBaseURL,
			TimeoutSeconds: defaultScryfallTimeout,
			PageDelayMS:    defaultScryfallPageDelayMS,
		},
		Art: Art{
			Path:           defaultArtPath,
			TimeoutSeconds: defaultArtTimeout,
		},
		Upscale: Upscale{
			APIPrefix:      defaultUpscaleAPIPrefix,
			Model:          defaultUpscaleModel,
			Factor:         defaultUpscaleFactor,
			TimeoutSeconds: defaultUpscaleTimeout,
		},
		Storage: Storage{
			Backend:  defaultStorageBackend,
			LocalDir: defaultStorageLocalDir,
		},
		Stabilize: Stabilize{
			TimeoutSeconds: defaultStabilizeTimeout,
			PollIntervalMS: defaultStabilizePollInterval,
			Window:         defaultStabilizeWindow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
		Server: Server{
			Bind: defaultServerBind,
			Root: defaultServerRoot,
		},
	}
}

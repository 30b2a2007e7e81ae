package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Generator GeneratorConfig `mapstructure:"generator" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Minter    MinterConfig    `mapstructure:"minter"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Worker    WorkerConfig    `mapstructure:"worker"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains token-verification settings. Tokens are issued by
// the external wallet-login service; this service only verifies them,
// so both sides must share the signing secret.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// GeneratorConfig contains Gemini image-generation settings.
type GeneratorConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	TextModel    string `mapstructure:"text_model"     validate:"required"`
	ImageModel   string `mapstructure:"image_model"    validate:"required"`
	AspectRatio  string `mapstructure:"aspect_ratio"`
	ImageSize    string `mapstructure:"image_size"`
}

// StorageConfig contains object-storage (S3-compatible, Cloudflare R2 in
// the reference deployment) settings. PublicURL is the base under which
// uploaded keys are publicly reachable.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required,url"`
	Region          string `mapstructure:"region"            validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	Bucket          string `mapstructure:"bucket"            validate:"required"`
	PublicURL       string `mapstructure:"public_url"        validate:"required,url"`
}

// MinterConfig contains settings for the chain relay that writes NFTs.
// Minting is optional: with an empty RelayURL every mint attempt reports
// not-configured, which the pipeline treats as a non-fatal skip.
type MinterConfig struct {
	RelayURL       string `mapstructure:"relay_url"       validate:"omitempty,url"`
	APIKey         string `mapstructure:"api_key"`
	CollectionName string `mapstructure:"collection_name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
}

// CacheConfig contains optional Redis settings for the task-status cache
// the clients poll against. Caching is disabled when Addr is empty.
type CacheConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"omitempty,gt=0"`
}

// WorkerConfig contains dispatcher and pipeline settings.
type WorkerConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	StageTimeoutSeconds int `mapstructure:"stage_timeout_seconds" validate:"required,gt=0"`
}

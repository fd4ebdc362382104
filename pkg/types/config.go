package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Every upstream call is bounded by it.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "BankruptcySpider/4.1 (+https://example.com)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RateLimitRetries is the number of backoff retries on HTTP 429.
	// Zero means a single attempt; no other status is ever retried.
	RateLimitRetries int `json:"rate_limit_retries" yaml:"rate_limit_retries"`
}

// ListingConfig holds settings for the registry listing crawl.
type ListingConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the listing endpoint (default: the ejustice list.pl page).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Language is the listing language parameter (default "fr").
	Language string `json:"language" yaml:"language"`

	// ActType is the publication category code (default "c02", bankruptcies).
	ActType string `json:"act_type" yaml:"act_type"`

	// MaxPages caps the number of pages a single range crawl may fetch
	// (default 500). Reaching it is reported as an error.
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// CBSOConfig holds settings for the annual-accounts filing API.
type CBSOConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the authentic-source API root
	// (default "https://ws.cbso.nbb.be/authentic").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// SubscriptionKey is sent as NBB-CBSO-Subscription-Key.
	SubscriptionKey string `json:"subscription_key,omitempty" yaml:"subscription_key,omitempty"`
}

// KBOConfig holds settings for the enterprise detail SOAP service.
type KBOConfig struct {
	HTTPConfig `yaml:",inline"`

	// ServiceURL is the SOAP endpoint.
	ServiceURL string `json:"service_url,omitempty" yaml:"service_url,omitempty"`

	// Username and Password authenticate the WS-Security UsernameToken.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"-" yaml:"-"`

	// Language is the RequestContext language (default "fr").
	Language string `json:"language" yaml:"language"`
}

// RasterConfig holds settings for rendering a document into page images.
type RasterConfig struct {
	// Pdftoppm is the binary name or absolute path (default "pdftoppm").
	Pdftoppm string `json:"pdftoppm" yaml:"pdftoppm"`

	// Scale is the render scale relative to 72 DPI (default 2).
	Scale float64 `json:"scale" yaml:"scale"`

	// DPI overrides Scale when positive.
	DPI int `json:"dpi" yaml:"dpi"`

	// ScratchDir is the parent of per-call scratch directories
	// (default: the OS temp dir).
	ScratchDir string `json:"scratch_dir,omitempty" yaml:"scratch_dir,omitempty"`
}

// OCRBackend identifies where page recognition runs.
type OCRBackend string

const (
	OCRBackendLocal     OCRBackend = "local"
	OCRBackendContainer OCRBackend = "container"
)

// OCRConfig holds settings for page text recognition.
type OCRConfig struct {
	// Backend selects local tesseract or a containerised one (default local).
	Backend OCRBackend `json:"backend" yaml:"backend"`

	// Tesseract is the binary name or absolute path (default "tesseract").
	Tesseract string `json:"tesseract" yaml:"tesseract"`

	// Image is the container image used by the container backend.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Runtime prefers "docker" or "podman" for the container backend.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// PullImage lets the container backend pull a missing image.
	PullImage bool `json:"pull_image,omitempty" yaml:"pull_image,omitempty"`

	// Language is the tesseract language pack (default "fra").
	Language string `json:"language" yaml:"language"`

	// Concurrency is the maximum number of pages recognised at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// StoreConfig holds settings for the local SQLite database.
type StoreConfig struct {
	// DataDir holds faillink.db (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups every stage configuration.
type PipelineConfig struct {
	Listing ListingConfig `json:"listing" yaml:"listing"`
	CBSO    CBSOConfig    `json:"cbso" yaml:"cbso"`
	KBO     KBOConfig     `json:"kbo" yaml:"kbo"`
	Raster  RasterConfig  `json:"raster" yaml:"raster"`
	OCR     OCRConfig     `json:"ocr" yaml:"ocr"`
	Store   StoreConfig   `json:"store" yaml:"store"`
}

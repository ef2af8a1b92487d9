package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	LogFile  string          `yaml:"log_file"`
	ImageDir string          `yaml:"image_dir"`
	Storage  MStorageConfig  `yaml:"storage"`
	Browser  MBrowserConfig  `yaml:"browser"`
	Scraper  MScraperConfig  `yaml:"scraper"`
	Schedule MScheduleConfig `yaml:"schedule"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MBrowserConfig struct {
	Headless         bool     `yaml:"headless"`
	NoSandbox        bool     `yaml:"no_sandbox"`
	UserAgent        string   `yaml:"user_agent"`
	BlockedResources []string `yaml:"blocked_resources"`
}

type MScraperConfig struct {
	BaseURL                   string `yaml:"base_url"`
	PriceURL                  string `yaml:"price_url"`
	PageLimit                 int    `yaml:"page_limit"`
	PageSettleDelaySeconds    int    `yaml:"page_settle_delay_seconds"`
	DetailBatchSize           int    `yaml:"detail_batch_size"`
	NavTimeoutSeconds         int    `yaml:"nav_timeout_seconds"`
	PriceNavTimeoutSeconds    int    `yaml:"price_nav_timeout_seconds"`
	PriceTableTimeoutSeconds  int    `yaml:"price_table_timeout_seconds"`
	DetailTitleTimeoutSeconds int    `yaml:"detail_title_timeout_seconds"`
}

type MScheduleConfig struct {
	Timezone         string `yaml:"timezone"`
	UTCOffsetMinutes int    `yaml:"utc_offset_minutes"`
	PriceCron        string `yaml:"price_cron"`
	CloseCron        string `yaml:"close_cron"`
	DetailCron       string `yaml:"detail_cron"`
}

package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port                string
	SourcesFile         string
	ScanIntervalHours   int
	PublicRefreshWindow int
	APIAccessKey        string

	// Catalog client configuration
	CatalogStorefront    string
	CatalogRetryCount    int
	CatalogRetryWaitSecs int

	// Apple Music credentials
	DeveloperToken string
	MusicUserToken string
	AppleTeamID    string
	AppleKeyID     string
	AppleKeyPath   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

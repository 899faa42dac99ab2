package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	DataDir           string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Browser configuration
	Headless bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

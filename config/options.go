package config

const (
	defaultLogFile           = "logs.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultPort              = 8080
	defaultHost              = "0.0.0.0"
	defaultData              = "/var/opt/shelfmark"
	defaultDSN               = defaultData + "/shelfmark.db"
	defaultLookupTimeout     = 10
	defaultGoogleBooksURL    = "https://www.googleapis.com/books/v1"
	defaultOpenLibraryURL    = "https://openlibrary.org"
	defaultWorkerPoolSize    = 4
	defaultJWTSecret         = ""
	defaultPasswordHash      = ""
)

type Option struct {
	Key   string
	Value interface{}
}

// Field tags are mapstructure instead of json because viper unmarshals
// through mapstructure.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the sqlite database file
	DSN string `mapstructure:"dsn_uri"`
	// Port is the port to listen on
	Port int `mapstructure:"port"`
	// Host is the host to listen on
	Host string `mapstructure:"host"`
	// Data is the directory to store data
	Data string `mapstructure:"data"`
	// LookupTimeout bounds a single external metadata request, in seconds.
	// Sensible values are 5 to 15.
	LookupTimeout int `mapstructure:"lookup_timeout"`
	// GoogleBooksURL is the base URL of the primary metadata source
	GoogleBooksURL string `mapstructure:"google_books_url"`
	// OpenLibraryURL is the base URL of the fallback metadata source
	OpenLibraryURL string `mapstructure:"open_library_url"`
	// WorkerPoolSize is the number of metadata refresh workers
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
	// JWTSecret signs API access tokens. Generated on first run if empty
	// while auth is enabled.
	JWTSecret string `mapstructure:"jwt_secret"`
	// PasswordHash is the bcrypt hash of the owner password. Empty hash
	// disables authentication (local single-user mode).
	PasswordHash string `mapstructure:"password_hash"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		DSN:               defaultDSN,
		Port:              defaultPort,
		Host:              defaultHost,
		Data:              defaultData,
		LookupTimeout:     defaultLookupTimeout,
		GoogleBooksURL:    defaultGoogleBooksURL,
		OpenLibraryURL:    defaultOpenLibraryURL,
		WorkerPoolSize:    defaultWorkerPoolSize,
		JWTSecret:         defaultJWTSecret,
		PasswordHash:      defaultPasswordHash,
	}
	return Opts
}

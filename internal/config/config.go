package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client used for remote vCard imports.
var UserAgent = "RemindDay/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "RemindDay"
	AppID             = "com.github.tartampluch.remind-day"
	KeyringService    = "com.github.tartampluch.remind-day"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DBFileName        = "birthdays.db"
	SettingsFileName  = "config.yaml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs, the settings file and exported CSV files.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating the app data and cache directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion       = "version"
	FlagDebug         = "debug"
	FlagConfig        = "config"
	FlagExport        = "export"
	FlagImport        = "import"
	FlagImportVCF     = "import-vcf"
	FlagImportURL     = "import-url"
	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfig    = "Path to the YAML settings file"
	FlagDescExport    = "Export all birthdays to CSV and exit"
	FlagDescImport    = "Import birthdays from a CSV file and exit"
	FlagDescImportVCF = "Import birthdays from a local vCard file and exit"
	FlagDescImportURL = "Import birthdays from a remote vCard URL and exit"
	MsgVersionOutput  = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Record Constraints & Defaults
// -----------------------------------------------------------------------------

const (
	DefaultNotificationTime = "09:00"
	MaxNameLength           = 50
	MaxNoteLength           = 200

	// PatternBirthDate validates the MM-DD recurrence key syntactically.
	// Month-specific day caps are enforced separately (Feb admits 29).
	PatternBirthDate = `^(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`

	// PatternNotificationTime validates a 24-hour HH:MM time of day.
	PatternNotificationTime = `^([01][0-9]|2[0-3]):[0-5][0-9]$`
)

// -----------------------------------------------------------------------------
// CSV Format
// -----------------------------------------------------------------------------

const (
	CSVHeader          = "Name,BirthDate,Note,NotificationTime"
	CSVSeparator       = ','
	CSVMinColumns      = 2
	CSVHeaderMarkName  = "name"
	CSVHeaderMarkBDate = "birthdate"

	// FormatExportFileName expects the current date as YYYY-MM-DD.
	FormatExportFileName = "Birthdays_%s.csv"
	ExportDateLayout     = "2006-01-02"
)

// -----------------------------------------------------------------------------
// Date & Time Layouts
// -----------------------------------------------------------------------------

const (
	// MonthDayLayout is the canonical textual form of the recurrence key.
	MonthDayLayout = "01-02"

	// TimeOfDayLayout is the canonical textual form of the notification time.
	TimeOfDayLayout = "15:04"

	// DisplayLayout renders a MM-DD as a long month name plus day, year-agnostic.
	DisplayLayout = "January 2"

	// DefaultLeapYear is the reference year for year-agnostic date handling.
	// 2000 is a leap year, so Feb 29 survives parsing and formatting.
	DefaultLeapYear = 2000

	// Date layouts accepted for vCard BDAY fields.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//RemindDay//Feed//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "remindday"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardN    = "N"
	VCardNOTE = "NOTE"

	DefaultICalRefresh = 1 * time.Hour

	// UID Generation
	UIDSalt         = "remindday-v1-"
	UIDHashLength   = 16
	FormatHashInput = "%d|%s|%s"
	FormatUID       = "%s-%d@%s"
)

// -----------------------------------------------------------------------------
// Settings Defaults
// -----------------------------------------------------------------------------

const (
	DefaultPort       = "18080"
	DefaultRefreshMin = 60
	DefaultLanguage   = "en"
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteCalendar       = "/"
	RouteCSV            = "/birthdays.csv"
	AddrSeparator       = ":"

	MinPort = 1
	MaxPort = 65535
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextCSV         = "text/csv; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyNotifTitle = "notif_title"
	TKeyNotifBody  = "notif_body" // Requires Name
	TKeyEvtSummary = "event_summary"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrBirthDateFormat  = "invalid birth date format (expected MM-DD)"
	ErrTimeFormat       = "invalid notification time format (expected HH:MM)"
	ErrCSVEmptyFile     = "the CSV file is empty or invalid"
	ErrCSVMissingCols   = "the CSV file must contain Name and BirthDate columns"
	ErrNoValidRows      = "no valid birthdays found in the file"
	ErrNoData           = "no birthdays to export"
	ErrStoreOpen        = "failed to open the birthday database"
	ErrStoreMigrate     = "failed to initialize the database schema"
	ErrRecordNotFound   = "birthday record not found"
	ErrRegNotFound      = "no registration for record"
	ErrRegistrarStopped = "notification registrar is not running"
	ErrScheduleFailed   = "failed to schedule reminder"
	ErrExportWrite      = "failed to write export file"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrSettingsPath     = "settings path is empty"
	ErrSettingsNil      = "settings are nil"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrDataDir          = "could not determine user config dir"
	ErrCreateDir        = "could not create app directory"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
)

// -----------------------------------------------------------------------------
// Import Diagnostics (user-facing, per row)
// -----------------------------------------------------------------------------

const (
	DiagInsufficientColumns = "not enough columns"
	DiagMissingName         = "name is required"
	DiagInvalidBirthDate    = "invalid birth date format (should be MM-DD)"
	DiagInvalidTime         = "invalid notification time format (should be HH:MM)"
	DiagStoreFailure        = "failed to save record"
	FormatDiagnostic        = "row %d: %s"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgNotFound     = "Not Found"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackNotifTitle = "\U0001F389 Birthday Reminder!"
	FallbackNotifBody  = "Today is %s's birthday! Don't forget to wish them!"
	FallbackSummary    = "Birthday: %s"
	FallbackName       = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events exist.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgFeedUpdated      = "Feed cache updated"
	MsgWorkerStart      = "Background refresh worker started"
	MsgWorkerStop       = "Worker stopping due to context cancellation"
	MsgRefreshDone      = "Feed refresh completed"
	MsgRefreshFailed    = "Feed refresh failed"
	MsgBdayToday        = "Birthday found today"
	MsgSchedOK          = "Reminder scheduled"
	MsgSchedReplaced    = "Stale registration replaced"
	MsgSchedCancelled   = "Registration cancelled"
	MsgSchedAllClear    = "All registrations cancelled"
	MsgSchedReconciled  = "Registrations reconciled at startup"
	MsgSchedFireSent    = "Reminder notification delivered"
	MsgSchedFireFail    = "Reminder notification delivery failed"
	MsgImportStarted    = "Import started"
	MsgImportDone       = "Import completed"
	MsgImportRowSkipped = "Import row skipped"
	MsgImportRowFailed  = "Import row failed to persist"
	MsgImportSchedFail  = "Record imported but reminder scheduling failed"
	MsgExportDone       = "Export completed"
	MsgExportEmpty      = "Nothing to export"
	MsgSkippedCard      = "Skipping malformed vCard"
	MsgSkippedDate      = "Skipping invalid date format"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgKeyringMiss      = "Keyring lookup failed (password might be empty)"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyURL        = "url"
	LogKeyStatus     = "status_code"
	LogKeyFile       = "file"
	LogKeyLang       = "lang"
	LogKeyKey        = "key"
	LogKeyPort       = "port"
	LogKeyInterval   = "interval"
	LogKeyCount      = "count"
	LogKeyName       = "name"
	LogKeyRow        = "row"
	LogKeyRecordID   = "record_id"
	LogKeyRegID      = "registration_id"
	LogKeyTrigger    = "trigger_at"
	LogKeyBirthDate  = "birth_date"
	LogKeyImported   = "imported"
	LogKeyFailed     = "failed"
	LogKeySkipped    = "schedule_failures"
	LogKeyPath       = "path"
	LogKeySizeBytes  = "size_bytes"
	LogKeyETag       = "etag"
	LogKeyToday      = "birthdays_today"
	LogKeyTotal      = "total_records"
	LogKeyDuration   = "duration_ms"
	LogKeyStats      = "stats"
	LogKeyValue      = "value"
	LogKeyUser       = "user"
	LogKeyRegistered = "registered"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompStore    = "store"
	CompNotify   = "notify"
	CompReminder = "reminder"
	CompTransfer = "transfer"
	CompFeed     = "feed"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompWorker   = "worker"
	CompI18n     = "i18n"
	CompSettings = "settings"
)

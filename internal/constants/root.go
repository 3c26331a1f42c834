package constants

const (
	AppName            = "habitlit"
	DefaultKeyringUser = "database-connection"
	SyncKeyringUser    = "sync-token"
	Version            = "v0.3.0"

	// DateFormat is the ledger key format (YYYY-MM-DD, local calendar)
	DateFormat = "2006-01-02"

	// TimestampFormat is used for createdAt / unlockedAt values
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitlit-"
	BackupFileSuffix = ".json"

	// Storage keys
	KeyHabits       = "habits"
	KeyAchievements = "achievements"
	KeyXP           = "xp"
	KeySyncLast     = "sync:last"
	KeySyncRemote   = "sync:remote"

	// Storage backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendMemory   = "memory"
)

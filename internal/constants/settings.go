package constants

const (
	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultListenAddr = "127.0.0.1:8417"
	DefaultKeyPrefix  = "habitlit:"
	DefaultDBName     = "habitlit.db"
	DefaultDataFile   = "habitlit.json"
	ConfigFileName    = "config.toml"
)

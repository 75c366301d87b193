package config

// Constants defining default values for application configuration
const (
	DefaultDataDir = "./data"
	DefaultDBPath  = "./data/links.sqlite"
	DefaultEnvFile = ".env"

	// Default external scraper, invoked once per key as
	// "python3 src/main.py <key> [<delay>]". An empty delay flag passes the
	// delay positionally after the key.
	DefaultScraperCommand = "python3 src/main.py"
	DefaultDelayFlag      = ""

	DefaultListSelection = "unscraped"
	DefaultListLimit     = 0 // 0 means no limit

	DefaultLogLevel = "info"
)

// Data directories processed by the archiver and the file extension
// collected from each.
const (
	FighterDetailsDir = "fighter_details"
	FightersListDir   = "fighters_list"
	FighterLinksDir   = "fighter_links"

	JSONExt = "json"
	TextExt = "txt"
)

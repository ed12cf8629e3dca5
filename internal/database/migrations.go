package database

// Migration represents a database migration
type Migration struct {
	Version string
	Up      string
}

// migrations are applied in order; the schema version is the count applied
var migrations = []Migration{
	{
		Version: "001_installations",
		Up: `
-- seq keeps insertion order; id is the opaque identifier handed to the shell
CREATE TABLE installations (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    path TEXT UNIQUE NOT NULL,
    core_jar TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		Version: "002_installation_last_status",
		Up: `
ALTER TABLE installations ADD COLUMN last_status TEXT NOT NULL DEFAULT 'unknown';
ALTER TABLE installations ADD COLUMN last_checked_at DATETIME;
`,
	},
}

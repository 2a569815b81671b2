package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema history for the attempts store. Each registering file
// must be named <version>_<name>.go so bun can derive the migration name.
var Migrations = migrate.NewMigrations()

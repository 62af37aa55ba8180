package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for the quiz record store, applied by `quiz-service migrate`
// and on server start.
var Migrations = migrate.NewMigrations()

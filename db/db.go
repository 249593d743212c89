package db

import "embed"

// Migrations holds the SQL migrations applied by golang-migrate through the iofs source driver.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Package domainscan holds assets shared by the binaries of the partner domain
// scanner.
package domainscan

import "embed"

// Migrations contains the goose SQL migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Package migrations holds the booking-service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

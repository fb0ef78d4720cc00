// Package scripts holds the versioned SQL migrations compiled into the binary.
package scripts

import "embed"

//go:embed *.sql
var FS embed.FS

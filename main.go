// Command relq keeps a declarative schema file and a live
// Postgres-family database in sync.
package main

import "github.com/relq/relq/cmd"

func main() {
	cmd.Execute()
}

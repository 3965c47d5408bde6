// chartbump increments the patch version of Helm charts that changed on a branch.
package main

import (
	"os"

	"github.com/hupe1980/chartbump/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

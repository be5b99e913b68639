// bgunmix removes a uniform background color from images, keeping anti-aliased
// edges and glows translucent.
package main

import (
	"os"

	"github.com/setanarut/bgunmix/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

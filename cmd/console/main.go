package main

import "github.com/storefront-tools/admin-console/cmd/console/cmd"

func main() {
	cmd.Execute()
}

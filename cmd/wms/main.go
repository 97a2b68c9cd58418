package main

import "github.com/mikelcalvo/wms/internal/cli"

func main() {
	cli.Execute()
}

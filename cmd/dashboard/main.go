package main

import "manus-dashboard/internal/adapter/cli"

func main() {
	cli.Execute()
}

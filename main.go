package main

import "supply-risk-alerts/internal/cli"

func main() {
	cli.Execute()
}

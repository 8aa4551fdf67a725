package main

import "expensetracker/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/MrSnakeDoc/castplay/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/vantagesec/reportkit/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/josephlewis42/civa/cmd"

func main() {
	cmd.Execute()
}

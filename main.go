package main

import "github.com/pittpv/happy-vote-app/cmd"

func main() {
	cmd.Execute()
}

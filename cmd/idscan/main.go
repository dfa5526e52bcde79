package main

import "github.com/MeKo-Tech/idscan/cmd/idscan/cmd"

func main() {
	cmd.Execute()
}

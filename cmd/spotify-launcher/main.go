package main

import "github.com/kpcyrd/spotify-launcher/cmd/spotify-launcher/cmd"

func main() {
	cmd.Execute()
}

package main

import "leaflet/cmd/leaflet/cmd"

func main() {
	cmd.Execute()
}

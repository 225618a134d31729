package main

import "github.com/DeibyRamirez/Backend-BatallaCartas/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ValentinKolb/dRide/cmd"

func main() {
	cmd.Execute()
}

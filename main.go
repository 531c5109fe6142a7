package main

import "github.com/ValentinKolb/dRS/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/meihuisu/UCVM-reallyOld/cmd"

func main() {
	cmd.Execute()
}

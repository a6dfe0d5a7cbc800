package main

import (
	"github.com/daedaleanai/uvmgen/cmd"
)

func main() {
	cmd.Execute()
}

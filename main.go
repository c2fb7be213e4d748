package main

import (
	"github.com/ValentinKolb/bioKV/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/spotDL/spotify-downloader-sub000/cmd"
)

func main() {
	cmd.Execute()
}

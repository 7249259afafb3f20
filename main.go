package main

import "github.com/kavelar/moviemind/cmd"

func main() {
	cmd.Execute()
}

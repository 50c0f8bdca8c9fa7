package main

import "github.com/vibast-solutions/ms-go-lock/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/keanucz/jellysync/cmd"

func main() {
	cmd.Execute()
}

package main

import "loginload/cmd"

func main() {
	cmd.Execute()
}

package main

import "vcnty/cmd"

func main() {
	cmd.Execute()
}

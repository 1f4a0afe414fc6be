package main

import "moodsync/cmd"

func main() {
	cmd.Run()
}

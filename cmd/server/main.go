package main

import "remu/internal/app/server"

func main() {
	server.Run()
}

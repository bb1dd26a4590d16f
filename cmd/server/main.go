package main

import (
	"github.com/dwarvesf/swap-history/internal/server"
)

func main() {
	server.Init()
}

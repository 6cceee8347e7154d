package main

import (
	cmd "github.com/agri4/agri-server/cmd/agri"
)

func main() {
	cmd.Execute()
}

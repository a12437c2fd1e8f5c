package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/dl-alexandre/gdmirror/internal/cli"
)

func main() {
	cli.Execute()
}

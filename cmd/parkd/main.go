package main

import (
	"github.com/joho/godotenv"
	"github.com/momeni/parkcore/cmd/parkd/command"
)

func main() {
	// a missing .env file is fine; deployments may rely on real
	// environment variables alone
	_ = godotenv.Load()
	command.Execute()
}

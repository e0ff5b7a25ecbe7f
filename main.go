package main

import "github.com/Trustflow-Network-Labs/farepay/internal/cmd"

func main() {
	cmd.Execute()
}

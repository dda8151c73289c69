package main

import "github.com/oshokin/diffbell/cmd/diffbell/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/meysamhadeli/projctx/cmd"

func main() {
	cmd.Execute()
}

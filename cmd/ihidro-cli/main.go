package main

import (
	"ihidro-assist/cmd/ihidro-cli/commands"
	"ihidro-assist/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}

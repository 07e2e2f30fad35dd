package main

import "github.com/Togather-Foundation/eventdesk/cmd/eventdesk/cmd"

func main() {
	cmd.Execute()
}

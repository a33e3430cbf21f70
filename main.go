// Command focusflow runs the FocusFlow timer, task board and HTTP API.
package main

import "github.com/xvierd/focusflow/cmd"

func main() {
	cmd.Execute()
}

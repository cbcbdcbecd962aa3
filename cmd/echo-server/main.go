// Command echo-server is a server that repeats back requests and
// messages, over either TCP or UDP.
//
// Run it as in one of these two examples:
//
//	echo-server tcp
//	echo-server udp
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jroosing/msgbox"
	"github.com/jroosing/msgbox/internal/wire"
)

var done = false
var listeningConn *msgbox.Conn

func update(conn *msgbox.Conn, event msgbox.Event, data *wire.Data) {
	fmt.Printf("Server: received event %s.\n", event)

	if event == msgbox.EventError {
		fmt.Printf("Server: error: %s.\n", data.Str())
	}

	if event == msgbox.EventListening {
		listeningConn = conn
	}

	if event == msgbox.EventMessage || event == msgbox.EventRequest {
		fmt.Printf("Server: message is '%s'.\n", data.Str())
		_ = msgbox.Send(conn, msgbox.NewDataStr("echo:"+data.Str()))
	}

	if event == msgbox.EventConnectionClosed {
		done = true
	}
}

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "tcp" && os.Args[1] != "udp") {
		fmt.Printf("\n  Usage: %s (tcp|udp)\n\n", os.Args[0])
		os.Exit(2)
	}

	protocol := os.Args[1]
	port := 2468
	if protocol == "tcp" {
		port = 2345
	}

	address := fmt.Sprintf("%s://*:%d", protocol, port)
	fmt.Printf("Server: listening at address %s\n", address)
	if _, err := msgbox.Listen(address, update, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Server: failed to listen: %v\n", err)
		os.Exit(1)
	}

	for !done {
		_ = msgbox.RunLoop(10 * time.Millisecond)
	}

	_ = msgbox.Unlisten(listeningConn)

	// Give the run loop a chance to see EventListeningEnded.
	_ = msgbox.RunLoop(10 * time.Millisecond)
}

// Command echo-client sends a one-way message and then a request to
// echo-server, over either TCP or UDP.
//
// After echo-server has been started, run it like so:
//
//	echo-client tcp
//	echo-client udp
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jroosing/msgbox"
	"github.com/jroosing/msgbox/internal/wire"
)

var done = false

func update(conn *msgbox.Conn, event msgbox.Event, data *wire.Data) {
	fmt.Printf("Client: received event %s.\n", event)

	if event == msgbox.EventError {
		fmt.Printf("Client: error: %s.\n", data.Str())
	}

	if event == msgbox.EventConnectionReady {
		_ = msgbox.Send(conn, msgbox.NewDataStr("one-way message"))
	}

	if event == msgbox.EventMessage {
		fmt.Printf("Client: message is '%s'.\n", data.Str())
		_ = msgbox.Get(conn, msgbox.NewDataStr("request-reply message"), "reply context")
	}

	if event == msgbox.EventReply {
		fmt.Printf("Client: message is '%s'.\n", data.Str())
		replyContext := "<null>"
		if ctx, ok := conn.ReplyContext().(string); ok {
			replyContext = ctx
		}
		fmt.Printf("Client: reply_context is '%s'.\n", replyContext)
		_ = msgbox.Disconnect(conn)
		done = true
	}
}

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "tcp" && os.Args[1] != "udp") {
		fmt.Printf("\n  Usage: %s (tcp|udp)\n\nMeant to be run after echo-server is started.\n", os.Args[0])
		os.Exit(2)
	}

	protocol := os.Args[1]
	port := 2468
	if protocol == "tcp" {
		port = 2345
	}

	address := fmt.Sprintf("%s://127.0.0.1:%d", protocol, port)
	fmt.Printf("Client: connecting to address %s\n", address)
	if _, err := msgbox.Connect(address, update, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Client: failed to connect: %v\n", err)
		os.Exit(1)
	}

	for !done {
		_ = msgbox.RunLoop(10 * time.Millisecond)
	}
}

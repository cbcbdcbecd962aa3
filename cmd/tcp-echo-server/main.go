// Command tcp-echo-server is a fixed-port TCP server that repeats back
// requests and messages.
package main

import (
	"fmt"
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
	if _, err := msgbox.Listen("tcp://*:2468", update, nil); err != nil {
		panic(err)
	}

	for !done {
		_ = msgbox.RunLoop(10 * time.Millisecond)
	}

	_ = msgbox.Unlisten(listeningConn)

	// Give the run loop a chance to see EventListeningEnded.
	_ = msgbox.RunLoop(10 * time.Millisecond)
}

// Command udp-echo-client is a fixed-address UDP client that sends a
// one-way message and then a request.
package main

import (
	"fmt"
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
	if _, err := msgbox.Connect("udp://127.0.0.1:2345", update, nil); err != nil {
		panic(err)
	}

	for !done {
		_ = msgbox.RunLoop(10 * time.Millisecond)
	}
}

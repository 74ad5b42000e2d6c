// Command probe sends one framed request to a running TradePro secure
// socket server and prints the response. Handy for poking the protocol
// without the desktop client.
package main

import (
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6000", "secure server address")
	action := flag.String("action", "get_markets", "action: get_markets | login | register")
	user := flag.String("user", "", "username for login/register")
	pass := flag.String("pass", "", "password for login/register")
	flag.Parse()

	req := map[string]string{"action": *action}
	if *user != "" {
		req["username"] = *user
		req["password"] = *pass
	}

	// The server uses a self-signed certificate; verification is off by design.
	conn, err := tls.Dial("tcp", *addr, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	body, _ := json.Marshal(req)
	if err := server.WriteFrame(conn, body); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	resp, err := server.ReadFrame(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		os.Exit(1)
	}

	var pretty any
	if err := json.Unmarshal(resp, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(string(resp))
}

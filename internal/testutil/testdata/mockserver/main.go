//go:build ignore

// Command mockserver simulates an external language server for integration
// tests. It connects back to the host's endpoint, taken from --host/--port
// when given and from SERVERHOST_ENDPOINT otherwise, and sends
// SERVERHOST_TOKEN as the first line when it is set.
//
// Environment variables control behavior:
//
//	MOCK_SERVER_MODE=echo          : connect and echo bytes until EOF (default)
//	MOCK_SERVER_MODE=connect-exit0 : connect, then exit 0 immediately
//	MOCK_SERVER_MODE=exit1         : write to stderr and exit 1 without connecting
//	MOCK_SERVER_MODE=hold          : never connect; wait to be terminated
//	MOCK_SERVER_MODE=bad-handshake : connect and send a wrong token
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

func main() {
	host := flag.String("host", "", "host to connect to")
	port := flag.Int("port", 0, "port to connect to")
	flag.Parse()

	mode := os.Getenv("MOCK_SERVER_MODE")

	address := os.Getenv("SERVERHOST_ENDPOINT")
	if *port != 0 {
		address = net.JoinHostPort(*host, strconv.Itoa(*port))
	}

	fmt.Fprintf(os.Stderr, "mockserver: mode=%q address=%s\n", mode, address)

	switch mode {
	case "exit1":
		fmt.Fprintln(os.Stderr, "mockserver: fatal startup error")
		os.Exit(1)
	case "hold":
		waitForSignal()
		os.Exit(0)
	}

	conn, err := net.Dial("tcp", address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mockserver: dial: %v\n", err)
		os.Exit(2)
	}

	token := os.Getenv("SERVERHOST_TOKEN")
	if mode == "bad-handshake" {
		token = "not-the-token"
	}

	if token != "" {
		if _, err := fmt.Fprintf(conn, "%s\n", token); err != nil {
			fmt.Fprintf(os.Stderr, "mockserver: handshake: %v\n", err)
			os.Exit(2)
		}
	}

	switch mode {
	case "connect-exit0":
		os.Exit(0)
	case "bad-handshake":
		waitForSignal()
		os.Exit(0)
	}

	go func() {
		waitForSignal()
		_ = conn.Close()
		os.Exit(0)
	}()

	_, _ = io.Copy(conn, conn)

	os.Exit(0)
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, os.Interrupt)
	<-ch
}

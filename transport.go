package serverhost

import "github.com/wagiedev/serverhost-go/internal/config"

// Transport is the duplex byte stream to a connected server.
//
// It is the first connection the server made to the host's endpoint. The
// host runs its own message protocol over it and should report I/O failures
// with Client.ReportTransportError.
type Transport = config.Transport

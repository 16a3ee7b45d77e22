// Package serverhost launches an external language server process and
// establishes the connection the host talks to it over.
//
// The host binds a loopback endpoint, spawns the server with the endpoint's
// address, and waits for the server to connect back. The first accepted
// connection becomes the session's Transport, a duplex byte stream on which
// the host runs its own message protocol.
//
// # Basic Usage
//
// Create one Client per host integration, start it on activation and stop it
// on deactivation:
//
//	client := serverhost.NewClient(
//	    serverhost.WithExecutable("java"),
//	    serverhost.WithArgs("-cp", "server.jar"),
//	    serverhost.WithEntryPoint("PolyglotLanguageServerLauncher"),
//	    serverhost.WithLogger(slog.Default()),
//	)
//
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop(context.Background())
//
//	transport := client.Transport()
//	// run the protocol over transport...
//
// Or let WithClient manage the lifecycle:
//
//	err := serverhost.WithClient(ctx, func(c serverhost.Client) error {
//	    return serve(ctx, c.Transport())
//	}, serverhost.WithProfile(profile))
//
// # Session States
//
// A client moves Stopped → Starting → Running and back to Stopped.
// Observers registered with OnStateChange see every transition in order;
// ObserveOnce fires for the first matching transition only:
//
//	client.ObserveOnce(func(ev serverhost.StateChangeEvent) bool {
//	    return ev.NewState == serverhost.StateRunning
//	}, func(serverhost.StateChangeEvent) {
//	    log.Println("server ready")
//	})
//
// The Transport is returned only while Running, and only after the Running
// event has reached every observer.
//
// # Hardening
//
// By default the listener binds the well-known port 2088 and accepts the
// first connection that arrives, whoever makes it. WithEphemeralPort binds
// an OS-assigned port instead, and WithHandshake requires the server to send
// a per-session token (from SERVERHOST_TOKEN) as its first line.
//
// # Error Handling
//
// Start reports typed errors:
//
//	if err := client.Start(ctx); err != nil {
//	    if allocErr, ok := errors.AsType[*serverhost.AllocationError](err); ok && allocErr.Kind == serverhost.PortInUse {
//	        log.Fatalf("port busy: %s", allocErr.Address)
//	    }
//	    if rvErr, ok := errors.AsType[*serverhost.RendezvousError](err); ok && rvErr.Kind == serverhost.ServerExited {
//	        log.Fatalf("server exited with code %d", rvErr.ExitCode)
//	    }
//	    log.Fatal(err)
//	}
package serverhost

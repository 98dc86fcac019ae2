// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package supervisor runs Gatehouse's long-lived services under a suture v4
supervision tree.

	RootSupervisor ("gatehouse")
	├── StorageSupervisor ("storage-layer")
	│   ├── audit.RetentionService (retention_days > 0)
	│   ├── auth.CleanupService (session provider only)
	│   └── services.CloserService (audit logger, stores, badger)
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket.Hub
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, whose slog.Logger is backed by zerolog (see
logging.NewSlogLogger).

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}

Services must implement suture.Service and should implement fmt.Stringer so
events name them.
*/
package supervisor

// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

/*
Package supervisor runs the gate's long-lived services under a suture v4 tree.

	RootSupervisor ("tunegate")
	├── EventsSupervisor ("events-layer")
	│   └── EventLogService (if events.enabled)
	├── MonitoringSupervisor ("monitoring-layer")
	│   └── LimiterReporterService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if server.enabled)

Each layer restarts its own children with suture's threshold/decay/backoff
policy. Supervisor events go to the zerolog logger through sutureslog and
the logging package's slog adapter.

Service implementations live in the services subpackage.
*/
package supervisor

// Package trajectservice implements the traject status workflow inside the
// assessment-workflow context.
//
// The module owns the candidate traject pipeline (Collecting through
// Archived), role-gated transitions applied in one store transaction, the
// per-owner case indexes written alongside every transition, and the bounded
// status history. Scheduled archival and outbox relay run as workers.
//
// Layering:
// - domain: statuses, roles, history, transition policy, history codec
// - application: commands/queries/workers using explicit ports
// - ports: transactional store, readers, outbox and publisher boundaries
// - adapters: HTTP handlers, memory store, postgres store
// - transport: module-private DTOs for HTTP contracts
package trajectservice

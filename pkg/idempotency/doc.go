// Package idempotency collapses retried mutations into a single effective
// execution.
//
// A caller-supplied key, unique within its tenant, identifies one logical
// operation attempt. The first caller to present a key wins a PENDING
// record and performs the mutation; everyone else observes the winner's
// recorded outcome. PROCESSED is terminal; FAILED rows and PENDING rows
// abandoned past a staleness cutoff can be reclaimed for retry.
//
// Handlers use Run, which drives the whole protocol:
//
//	entityID, replayed, err := idempotency.Run(ctx, store, tc.TenantID, key,
//		idempotency.DefaultStaleAfter,
//		func(ctx context.Context) (uuid.UUID, error) {
//			return svc.createEntity(ctx, req)
//		},
//	)
package idempotency

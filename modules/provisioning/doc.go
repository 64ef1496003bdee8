// Package provisioning implements entity setup and booking presets, the
// first consumers of the tenant context pipeline.
//
// Entity setup is the "setup wizard" flow: clients may retry submissions
// after network uncertainty or replay them from an offline queue, so the
// create operation is idempotent under a client-generated key and rate
// limited per user. Every repository query is tenant-scoped through the
// filter builder; there is no raw query path.
package provisioning

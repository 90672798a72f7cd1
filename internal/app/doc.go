// Package app is the composition root of the ReWear client.
//
// Run loads configuration, builds the zap logger, opens the durable store
// (SQLite under the data directory, or memory with -ephemeral) and wires the
// state components over one marketplace client:
//
//	config.Load()        TOML file, .env, REWEAR_* overrides
//	logging.New()        file or stderr
//	openStorage()        storage.SQLite | storage.Memory
//	NewServices()        session, catalog, swaps, local items
//	bootstrap()          restore token, probe API, first page
//	StartPoller()        background refresh
//	ui.Run()             Bubble Tea program (blocks)
//
// # Background refresh
//
// The poller wakes every interval (10s by default). While a user is signed
// in it refreshes the profile, so the points balance stays current, and then
// the user's swaps. While the catalog is offline it probes the API so the
// client notices when the backend returns. Consecutive failures double the
// wait up to 30 seconds; a success resets it.
//
// A rejected token on refresh ends the session. The poller then clears the
// swap lists and keeps running.
package app

// Package ui provides the terminal interface for the rewear client.
//
// The interface is a Bubble Tea program. Model holds the view state and a
// copy of the session, catalog and swap snapshots; every remote call runs as
// a tea.Cmd that reports back through opDoneMsg, so Update never blocks.
// A one second tick re-reads the snapshots so that changes made by the
// background poller show up without user input.
//
// # Views
//
//   - Browse: paged listings with category, size and condition filters and
//     a search line. Local listings saved while offline or as the demo user
//     are shown above the remote page.
//   - Detail: one listing, with swap requests for points or for one of the
//     viewer's own items.
//   - Swaps: the viewer's requests, requests for the viewer's items, and for
//     administrators every swap. Accept, reject and complete act on the
//     selected swap.
//   - Moderation: listings waiting for approval (administrators only).
//   - Logs: a followable tail of the client log file.
//   - Login and New listing: forms built from bubbles/textinput.
//
// # Key Bindings
//
//   - b, w, l, m: browse, swaps, logs, moderation
//   - Tab / Shift+Tab: cycle browse, swaps and logs
//   - a: sign in or sign out
//   - n: new listing
//   - c, z, o: cycle category, size, condition; x resets filters
//   - /: search, [ and ]: page
//   - T: next theme, ? or h: help
//   - e or Ctrl+C: exit
//
// Theme, page size and filters are written to the preferences file on exit
// and whenever the theme changes.
package ui

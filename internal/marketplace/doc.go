// Package marketplace provides an HTTP client for the ReWear marketplace API.
//
// # Overview
//
// The package is the gateway between the client's state components and the
// remote REST service. It is stateless: no caching, no retries,
// no session handling. Callers pass the bearer token to every protected call.
//
//   - client.go: HTTP client, request plumbing, multipart upload encoding
//   - types.go: wire types mirroring the API schema
//   - errors.go: error taxonomy shared by every caller
//
// # Identifiers
//
// Items and images carry an ID that is either a server-assigned integer or a
// client-generated string (listings created offline, see package localitems).
// ID compares by kind and value, so a remote item 5 and a local item "5" are
// different keys in any map or equality check.
//
// # List responses
//
// GET /items has been served in two shapes: a bare JSON array (older
// deployments) and an {items, total} envelope. ListItems normalises both into
// ItemPage so downstream code never branches on the shape; ItemPage.Legacy
// records that the total is only the length of the received slice.
//
// # Error Handling
//
// Every failure matches one sentinel with errors.Is:
//
//   - ErrUnauthorized: 401, or a protected call made without a token
//   - ErrForbidden: 403 from privileged endpoints
//   - ErrValidation: 400/409/422 and rejections raised before sending
//   - ErrNotFound: 404
//   - ErrServer: 5xx
//   - ErrNetwork: transport failure, timeout or an undecodable body
//
// HTTP failures are *APIError values carrying the server's "detail" text.
// Message renders any error for display.
//
// # Usage Example
//
//	client, err := marketplace.NewClient("http://localhost:8000/api", 10*time.Second)
//	if err != nil {
//		return err
//	}
//	page, err := client.ListItems(ctx, marketplace.ItemQuery{Page: 1, Limit: 12, Category: "tops"})
//	if errors.Is(err, marketplace.ErrNetwork) {
//		// keep showing the previous page
//	}
package marketplace

// Package chartclient talks to the remote chart-rendering service.
//
// The service exposes three endpoints, all called with a
// "Content-Type: text/plain" header:
//   - POST <base><submit path> with the raw chart payload; a 200 response
//     carries a JSON body with "hash" and "chartpath" fields.
//   - GET <base><status path><hash>; a 200 response carries a JSON body with
//     a boolean "ready" field.
//   - GET <base><chartpath> returns the rendered artifact.
//
// # Client
//
// Use [New] with an [http.Client] built by [NewHTTPClient]:
//
//	client, err := chartclient.New(chartclient.Options{
//		BaseURL: "https://dev.timescalecreator.org",
//		HTTP:    chartclient.NewHTTPClient(0),
//	})
//	resp, err := client.Submit(ctx, payload)
//
// Non-2xx responses are not errors: every method returns a [Response] with
// the status code and body. An error is returned only when no complete
// response was received. When the status line arrived but the body could not
// be read, the error is an [*HTTPError] carrying the status code.
//
// Use [IsTimeout] to tell transport timeouts from other transport failures.
package chartclient

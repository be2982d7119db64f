// Package norsani provides a client for the Norsani, WooCommerce and
// WordPress REST APIs.
//
// # Architecture
//
// The package is organized into several components:
//
//   - ClientConfig: validated, immutable connection and auth settings
//   - ResolveURL: endpoint + API family to a fully qualified URL
//   - Canonicalize: deterministic ordering and encoding of query strings
//   - OAuthSigner: OAuth 1.0a HMAC-SHA256 signing for plain HTTP sites
//   - RequestBuilder: assembles URL, query, headers and body per call
//   - Transport: executes the request (HTTPTransport is the default)
//   - Client: Get/Post/Put/Delete/Options plus Do and DoAll
//
// # Authentication
//
// Over HTTPS the consumer key and secret are sent either as HTTP basic auth
// (the default) or, with QueryStringAuth, as consumer_key/consumer_secret
// query parameters. Over plain HTTP every request is signed with OAuth
// 1.0a; commerce API versions v1 and v2 use the signing key without its
// trailing ampersand.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := norsani.NewClient(norsani.Options{
//		URL:            "https://yourstore.com",
//		ConsumerKey:    "ck_xxx",
//		ConsumerSecret: "cs_xxx",
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	vendors, err := client.Get(ctx, "vendors", norsani.FamilyNorsani, nil)
//	products, err := client.Get(ctx, "products", norsani.FamilyWC,
//		norsani.Params{{Key: "page", Value: "2"}})
//
// OnComplete and OnResult run only after a successful call:
//
//	_, err = client.Put(ctx, "products/12", norsani.FamilyWC,
//		map[string]any{"stock_quantity": 4},
//		norsani.OnComplete(func() { logger.Info().Msg("stock updated") }))
//
// # Error Handling
//
//   - ConfigurationError: missing or invalid settings (errors.Is ErrInvalidConfig)
//   - TransportError: network failure, non-2xx status or undecodable JSON
//     (errors.Is ErrTransport), with IsNotFound and IsUnauthorized helpers
//
// Nothing is retried and no error is swallowed.
package norsani

// Package gatewaysdk is a Go client for the partner gateway.
//
// Partners use Client to start embed sessions and to call the partner API
// with their own HS256 tokens:
//
//	c := gatewaysdk.NewClient("https://gateway.persona-ai.ai")
//	ev, err := c.StartSession(ctx, embedToken)
//	if errors.Is(err, gatewaysdk.ErrSessionEnded) {
//		// token rejected; ev.Reason is "auth_failed"
//	}
//
//	info, err := c.TokenInfo(ctx, apiToken)
//
// Operators use AdminClient, obtained from Client.Admin, to provision
// partners when the gateway runs with its database partner source:
//
//	admin := c.Admin(os.Getenv("ADMIN_TOKEN"))
//	created, err := admin.CreatePartner(ctx, gatewaysdk.CreatePartnerRequest{ID: "acme"})
//	// created.Secret is shown once; hand it to the partner.
//
// Every non-2xx response except a rejected session start is returned as an
// *APIError carrying the gateway's error code and request id.
package gatewaysdk

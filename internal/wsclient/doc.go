// Package wsclient implements an authenticated, self-healing WebSocket client
// for a single messaging endpoint.
//
// A ClientContext, built with a Builder, names the endpoint and the client
// credentials. Login exchanges the credentials for a session cookie at
// /authentication/sign_in on the endpoint host. An EndpointClient attaches
// that cookie to the WebSocket upgrade, signs in again once when the upgrade
// is rejected with HTTP 401, and runs a keep-alive loop that pings the open
// session and reconnects when it drops.
//
// Sessions are dialed through an explicit Transport. A Service bundles a
// Transport with the clients started on it:
//
//	svc := wsclient.NewService()
//	defer svc.Stop()
//
//	client, err := wsclient.NewEndpointClient(cc, wsclient.HandlerFuncs{
//	    Text: func(msg string) { fmt.Println(msg) },
//	})
//	if err != nil {
//	    return err
//	}
//	if err := svc.InitClient(ctx, client); err != nil {
//	    return err
//	}
//	err = client.SendText("hello")
package wsclient

// Package authhandler serves the channel authorization endpoint that
// subscribing clients call before joining a private or presence channel.
//
// The client posts the form fields socket_id and channel_name; the handler
// answers with the JSON AuthToken produced by a pusher.Client:
//
//	h, err := authhandler.New(authhandler.Config{
//	    Authorizer: client,
//	    UserResolver: func(r *http.Request, channel string) (*pusher.PresenceUser, error) {
//	        user := sessionUser(r)
//	        return &pusher.PresenceUser{ID: user.ID, Info: user.Profile}, nil
//	    },
//	    Logger: logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", h)
//
// Every response carries an X-Request-ID header. Panics in resolvers are
// recovered and reported as 500.
package authhandler

// Package features defines the twelve feature slices of the election
// dashboard on top of the cache package.
//
// Each slice owns one cache.Feature whose operations call the backend
// through an *api.Client. Root builds every slice at startup:
//
//	root, err := features.NewRoot(client, features.Options{Sessions: store})
//	ctx = auth.WithSession(ctx, session)
//	e, err := root.Elections.GetByID.Run(ctx, "E1")
//	loading := root.Elections.GetByID.Loading("E1")
package features

// Package clientip resolves the address of the caller behind optional
// reverse proxies.
//
// By default only RemoteAddr is used. Deployments behind a proxy list the
// headers the proxy sets, in priority order:
//
//	res := clientip.New("CF-Connecting-IP", "X-Forwarded-For")
//	r.Use(res.Middleware)
//
// Handlers then read the address with FromContext, and LoggerExtractor adds
// it to log records.
package clientip

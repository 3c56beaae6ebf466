package auth

import "context"

type principalContextKey struct{}

// WithPrincipal returns a copy of ctx carrying principal.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	p := principal
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// PrincipalFromContext returns the principal installed by the gate, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil {
		return Principal{}, false
	}
	return *p, true
}

type clientAddrContextKey struct{}

// WithClientAddr returns a copy of ctx carrying the caller's network address.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrContextKey{}, addr)
}

// ClientAddrFromContext returns the address set by WithClientAddr.
func ClientAddrFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(clientAddrContextKey{}).(string)
	return addr, ok && addr != ""
}

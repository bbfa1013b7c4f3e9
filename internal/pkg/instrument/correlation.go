package instrument

import "context"

type correlationKey struct{}

// SetCorrelationID stores the request correlation ID on ctx.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cID)
}

// GetCorrelationID returns the correlation ID stored on ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}

package api

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
)

// NewLoggingInterceptor logs every unary call with its duration and code.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			evt := log.Debug()
			if err != nil {
				code := connect.CodeOf(err)
				if code == connect.CodeInternal || code == connect.CodeUnknown || code == connect.CodeDataLoss {
					evt = log.Error().Err(err)
				} else {
					evt = log.Info().Str("error", err.Error())
				}
				evt = evt.Str("code", code.String())
			}
			evt.
				Str("procedure", req.Spec().Procedure).
				Dur("duration", time.Since(start)).
				Msg("engine call")
			return resp, err
		}
	}
}

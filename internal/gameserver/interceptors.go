package gameserver

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InterceptorLogger adapts a zap logger to the middleware logging interface.
// Fields arrive as alternating key/value pairs.
func InterceptorLogger(l *zap.Logger) logging.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		zf := make([]zap.Field, 0, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				key = fmt.Sprint(fields[i])
			}
			switch v := fields[i+1].(type) {
			case string:
				zf = append(zf, zap.String(key, v))
			case int:
				zf = append(zf, zap.Int(key, v))
			case bool:
				zf = append(zf, zap.Bool(key, v))
			default:
				zf = append(zf, zap.Any(key, v))
			}
		}
		logger := l.WithOptions(zap.AddCallerSkip(1)).With(zf...)
		switch lvl {
		case logging.LevelDebug:
			logger.Debug(msg)
		case logging.LevelInfo:
			logger.Info(msg)
		case logging.LevelWarn:
			logger.Warn(msg)
		default:
			logger.Error(msg)
		}
	})
}

// ServerOptions returns the interceptor chain for the rules server: one log
// line per finished call, and panics turned into codes.Internal.
//
// Postcondition: a panicking handler never takes the server down.
func ServerOptions(logger *zap.Logger) []grpc.ServerOption {
	if logger == nil {
		logger = zap.NewNop()
	}
	rpcLog := logger.Named("rpc")
	onPanic := recovery.WithRecoveryHandler(func(p any) error {
		rpcLog.Error("handler panicked", zap.Any("panic", p))
		return status.Errorf(codes.Internal, "internal error")
	})
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(InterceptorLogger(rpcLog), logging.WithLogOnEvents(logging.FinishCall)),
			recovery.UnaryServerInterceptor(onPanic),
		),
	}
}

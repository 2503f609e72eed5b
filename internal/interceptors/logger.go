package interceptors

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggerUnaryInterceptor logs every failed unary call
func LoggerUnaryInterceptor(applicables ...UnaryInterceptorApplicable) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		if !isUnaryInterceptorApplicable(info, applicables...) {
			return h(ctx, req)
		}

		start := time.Now()
		res, err := h(ctx, req)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"method":  info.FullMethod,
				"code":    status.Code(err).String(),
				"latency": time.Since(start).String(),
			}).Warnf("grpc call failed - %v", err)
		}
		return res, err
	}
}

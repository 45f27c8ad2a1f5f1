package httpd

import (
	"time"

	"github.com/fluxorio/poolserve/pkg/logging"
	"github.com/fluxorio/poolserve/pkg/metrics"
)

// AccessLogMiddleware logs one line per handled connection: connection ID,
// peer, resolved path and status, and handling duration.
func AccessLogMiddleware(logger logging.Logger) Middleware {
	return func(next ConnectionHandler) ConnectionHandler {
		return func(cctx *ConnContext) error {
			err := next(cctx)
			elapsed := time.Since(cctx.Start)
			if err != nil {
				logger.Errorf("conn %s %s: %v (%s)", cctx.ID, cctx.RemoteAddr, err, elapsed)
				return err
			}
			logger.Infof("conn %s %s %q -> %q (%s)", cctx.ID, cctx.RemoteAddr, cctx.Path, cctx.Status, elapsed)
			return nil
		}
	}
}

// MetricsMiddleware records per-request Prometheus metrics. Requests that
// fail before a route is resolved carry no path/status and are counted only
// as handler errors.
func MetricsMiddleware(m *metrics.Metrics) Middleware {
	return func(next ConnectionHandler) ConnectionHandler {
		return func(cctx *ConnContext) error {
			err := next(cctx)
			if err != nil {
				m.HandlerErrors.Inc()
			}
			if cctx.Status != "" {
				m.RequestsTotal.WithLabelValues(cctx.Path, cctx.Status).Inc()
				m.RequestDuration.WithLabelValues(cctx.Path).Observe(time.Since(cctx.Start).Seconds())
			}
			return err
		}
	}
}

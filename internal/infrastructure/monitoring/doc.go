/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the service,
tracking HTTP requests, relay fetches, and chat hub activity.

# Features

- HTTP request metrics (latency, throughput, size)
- Relay fetch metrics (duration, outcome classification)
- WebSocket connection gauge
- Chat message counters and history length gauge
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordRelayFetch("ok", duration, bodySize)
	metrics.IncWSConnections()

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring

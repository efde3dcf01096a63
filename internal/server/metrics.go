package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamma_requests_total",
		Help: "Bancho POST requests by kind.",
	}, []string{"kind"})

	packetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamma_client_packets_total",
		Help: "Decoded client packets by id.",
	}, []string{"id"})

	unknownPacketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamma_unknown_packets_total",
		Help: "Client packets with an id the dispatcher does not handle.",
	})
)

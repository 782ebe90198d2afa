package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for traffic against the Service Layer. Labels stay low-cardinality:
// method is the HTTP verb, outcome is ok/http_error/transport_error.
var (
	ServiceLayerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_servicelayer_requests_total",
		Help: "Requests issued to the SAP B1 Service Layer.",
	}, []string{"method", "outcome"})

	BatchGroups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_batch_groups_total",
		Help: "Multipart $batch groups sent, by result.",
	}, []string{"result"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_submissions_total",
		Help: "Harvest submissions, by result.",
	}, []string{"result"})
)

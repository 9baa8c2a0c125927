package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_checkouts_created_total",
		Help: "Total number of checkouts persisted",
	})

	checkoutEmailsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_checkout_emails_failed_total",
		Help: "Total number of checkout QR emails that could not be sent",
	})
)

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/passvault/lib/sharetoken"
)

const metricsNamespace = "passvault"

type metrics struct {
	decryptFailures    prometheus.Counter
	tokensIssued       prometheus.Counter
	guestVerifications *prometheus.CounterVec
	entries            prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		decryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "vault",
			Name:      "decrypt_failures_total",
			Help:      "Stored secrets that failed to decrypt.",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "vault",
			Name:      "share_tokens_issued_total",
			Help:      "Share tokens issued to the owner.",
		}),
		guestVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "vault",
			Name:      "guest_verifications_total",
			Help:      "Guest share-token checks by outcome.",
		}, []string{"outcome"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "vault",
			Name:      "entries",
			Help:      "Entries returned by the last owner listing.",
		}),
	}

	// Pre-create every outcome so dashboards see zeros.
	for _, state := range []sharetoken.State{sharetoken.StateValid, sharetoken.StateExpired, sharetoken.StateMalformed} {
		m.guestVerifications.WithLabelValues(state.String())
	}

	if registerer == nil {
		return m, nil
	}
	for _, collector := range []prometheus.Collector{m.decryptFailures, m.tokensIssued, m.guestVerifications, m.entries} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kitchenledger"

// Ledger holds the counters exported by the inventory ledger. A nil *Ledger is a valid no-op.
type Ledger struct {
	lotsAppended      prometheus.Counter
	deductions        *prometheus.CounterVec
	insufficientStock prometheus.Counter
	unitAssumptions   prometheus.Counter
	salesRecorded     *prometheus.CounterVec
	cogsTotal         *prometheus.CounterVec
}

// NewLedger creates the ledger collectors and registers them on reg
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		lotsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_appended_total",
			Help:      "Purchase lots appended to the ledger.",
		}),
		deductions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deductions_total",
			Help:      "FIFO deductions attempted, by outcome.",
		}, []string{"outcome"}),
		insufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insufficient_stock_total",
			Help:      "Deductions rejected because lots could not cover the requirement.",
		}),
		unitAssumptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_assumptions_total",
			Help:      "Conversions that fell back to an assumed 1:1 ratio.",
		}),
		salesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_recorded_total",
			Help:      "Sale transactions recorded, by kind and platform.",
		}, []string{"kind", "platform"}),
		cogsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cogs_total",
			Help:      "Cost of goods sold attributed by FIFO, by kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.lotsAppended,
			m.deductions,
			m.insufficientStock,
			m.unitAssumptions,
			m.salesRecorded,
			m.cogsTotal,
		)
	}
	return m
}

func (m *Ledger) LotAppended() {
	if m == nil {
		return
	}
	m.lotsAppended.Inc()
}

func (m *Ledger) DeductionCommitted() {
	if m == nil {
		return
	}
	m.deductions.WithLabelValues("committed").Inc()
}

func (m *Ledger) DeductionRejected(insufficient bool) {
	if m == nil {
		return
	}
	m.deductions.WithLabelValues("rejected").Inc()
	if insufficient {
		m.insufficientStock.Inc()
	}
}

func (m *Ledger) UnitAssumed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unitAssumptions.Add(float64(n))
}

func (m *Ledger) SaleRecorded(kind, platform string, cogs float64) {
	if m == nil {
		return
	}
	m.salesRecorded.WithLabelValues(kind, platform).Inc()
	if cogs > 0 {
		m.cogsTotal.WithLabelValues(kind).Add(cogs)
	}
}

// RolledBack counts a deduction whose lot writes were undone before it committed
func (m *Ledger) RolledBack() {
	if m == nil {
		return
	}
	m.deductions.WithLabelValues("rolled_back").Inc()
}

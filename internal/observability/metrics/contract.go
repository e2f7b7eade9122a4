package metrics

import "time"

// ContractQuery records one contract query.
func ContractQuery(method, outcome string, elapsed time.Duration) {
	if !enabled {
		return
	}
	contractQueryTotal.WithLabelValues(method, outcome).Inc()
	contractQueryDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ChainInfo records the chain and contract the process is bound to.
func ChainInfo(chainID, contract string, blockNumber uint64) {
	if !enabled {
		return
	}
	chainInfo.WithLabelValues(chainID, contract).Set(float64(blockNumber))
}

package main

import (
	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
)

func main() {
	if err := Execute(); err != nil {
		logging.GetLogger().Fatal("command failed", err)
	}
}

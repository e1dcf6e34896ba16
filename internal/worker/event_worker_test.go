package worker

import (
	"testing"

	"go.uber.org/zap"
)

type recordingSubscriber struct {
	name  string
	order *[]string
}

func (r recordingSubscriber) RegisterHandlers() {
	*r.order = append(*r.order, r.name)
}

func TestStartEventWorkersKeepsOrder(t *testing.T) {
	var order []string
	StartEventWorkers(zap.NewNop(),
		recordingSubscriber{name: "mirror", order: &order},
		nil,
		recordingSubscriber{name: "engine", order: &order},
	)
	if len(order) != 2 || order[0] != "mirror" || order[1] != "engine" {
		t.Fatalf("order = %v", order)
	}
}

package lbhealth

import (
	"context"

	"github.com/pkg/errors"
)

// NoopSource stands in when no cloud credentials are configured.
type NoopSource struct{}

var _ Source = NoopSource{}

func (NoopSource) Available() bool {
	return false
}

func (NoopSource) TargetGroups(ctx context.Context, loadBalancerARN string) ([]TargetGroup, error) {
	return nil, errors.New("load balancer health source is not configured")
}

func (NoopSource) TargetHealth(ctx context.Context, targetGroupARN string) ([]TargetHealth, error) {
	return nil, errors.New("load balancer health source is not configured")
}
